package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/salepoint/api/internal/enum"
)

// DateLayout is the canonical calendar-day form used by SaleRecord.Date and
// by every filter bound. Days in this form compare correctly as strings.
const DateLayout = "2006-01-02"

// Errors returned by filter construction. Both are rejected before any store
// call is made.
var (
	ErrInvalidRange         = errors.New("start date must not be after end date")
	ErrNoPaymentMethods     = errors.New("at least one payment method is required")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// Day converts a wall-clock instant to the merchant-local calendar day.
// This is the single canonical rule for day bucketing: the same conversion is
// applied at write time (checkout) and read time (report filters), so a sale
// committed near midnight lands in the same bucket it is queried from.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDay validates a YYYY-MM-DD string and returns it in canonical form.
func ParseDay(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Format(DateLayout), nil
}

// Filter selects sale records by inclusive calendar-day range and payment
// method. A nil Methods slice matches every payment method.
type Filter struct {
	Start   string
	End     string
	Methods []string
}

// NewFilter builds a Filter from raw day bounds and an optional payment
// method selection.
//
// Both bounds are normalized through ParseDay, stripping any time-of-day
// notion before they reach the store. It fails with ErrInvalidRange when
// start is after end, and with ErrNoPaymentMethods when methods is non-nil
// but empty (a contradictory selection: the caller asked to filter by method
// and selected none). Method names are matched case-insensitively and stored
// in canonical form.
func NewFilter(start, end string, methods []string) (Filter, error) {
	s, err := ParseDay(start)
	if err != nil {
		return Filter{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return Filter{}, err
	}
	if s > e {
		return Filter{}, ErrInvalidRange
	}

	var canonical []string
	if methods != nil {
		if len(methods) == 0 {
			return Filter{}, ErrNoPaymentMethods
		}
		canonical = make([]string, 0, len(methods))
		for _, m := range methods {
			c, ok := enum.NormalizePaymentMethod(m)
			if !ok {
				return Filter{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, m)
			}
			canonical = append(canonical, c)
		}
	}

	return Filter{Start: s, End: e, Methods: canonical}, nil
}

// SingleDay builds a Filter covering exactly one calendar day.
func SingleDay(day string, methods []string) (Filter, error) {
	return NewFilter(day, day, methods)
}

// matchesDay reports whether a record day falls inside the inclusive range.
func (f Filter) matchesDay(day string) bool {
	return day >= f.Start && day <= f.End
}

// matchesMethod reports whether a record payment method is selected.
// Comparison is case-insensitive because old records carry mixed casing.
func (f Filter) matchesMethod(method string) bool {
	if f.Methods == nil {
		return true
	}
	for _, m := range f.Methods {
		if enum.PaymentMethodEquals(m, method) {
			return true
		}
	}
	return false
}
