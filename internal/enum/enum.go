package enum

import "strings"

// ── Payment methods (CHECK constrained in DB) ──
//
// Canonical forms are "Cash" and "Card". Older records written by the mobile
// clients carry mixed casing ("cash", "CASH"), so comparisons go through
// NormalizePaymentMethod rather than ==.

const (
	PaymentMethodCash = "Cash"
	PaymentMethodCard = "Card"
)

// NormalizePaymentMethod maps a raw payment-method string to its canonical
// form. The second return value reports whether the input named a known
// method.
func NormalizePaymentMethod(s string) (string, bool) {
	switch {
	case strings.EqualFold(s, PaymentMethodCash):
		return PaymentMethodCash, true
	case strings.EqualFold(s, PaymentMethodCard):
		return PaymentMethodCard, true
	}
	return "", false
}

// PaymentMethodEquals reports whether two payment-method strings name the
// same method, ignoring case.
func PaymentMethodEquals(a, b string) bool {
	return strings.EqualFold(a, b)
}
