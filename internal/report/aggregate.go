package report

import (
	"sort"

	"github.com/salepoint/api/internal/domain"
	"github.com/salepoint/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ItemAggregate is the per-item rollup across a set of matching sales,
// keyed by line-item name. Rebuilt on every call, never persisted.
type ItemAggregate struct {
	Name         string          `json:"name"`
	QuantitySold int64           `json:"quantity_sold"`
	TotalSold    decimal.Decimal `json:"total_sold"`
}

// PaymentTotals sums record totals by payment method over the matching set.
type PaymentTotals struct {
	Cash  decimal.Decimal `json:"cash"`
	Card  decimal.Decimal `json:"card"`
	Grand decimal.Decimal `json:"grand"`
}

// Result is the output of one aggregation pass.
//
// Sales is ordered ascending by (date, sale number); use MostRecentFirst for
// the live-feed shape. Items carries no ordering guarantee -- callers that
// need deterministic output must sort it with SortItemsByName or
// SortItemsByTotalSold.
type Result struct {
	Sales    []domain.SaleRecord `json:"sales"`
	Items    []ItemAggregate     `json:"items"`
	Payments PaymentTotals       `json:"payments"`
}

// Aggregate filters records through f and builds the report rollups.
//
// It is a pure function of its inputs: no state survives the call, and two
// calls over the same inputs produce identical output (Items ordering aside).
// An empty matching set is a valid result with empty slices and zero totals,
// not an error.
//
// Per-sale money comes from the committed record Total; per-item money is
// derived from the line items directly. A record with no line items still
// counts toward Sales and Payments.
func Aggregate(records []domain.SaleRecord, f Filter) Result {
	res := Result{
		Sales: []domain.SaleRecord{},
		Items: []ItemAggregate{},
		Payments: PaymentTotals{
			Cash:  decimal.Zero,
			Card:  decimal.Zero,
			Grand: decimal.Zero,
		},
	}

	index := make(map[string]int)

	for _, rec := range records {
		if !f.matchesDay(rec.Date) || !f.matchesMethod(rec.PaymentMethod) {
			continue
		}

		res.Sales = append(res.Sales, rec)

		res.Payments.Grand = res.Payments.Grand.Add(rec.Total)
		switch {
		case enum.PaymentMethodEquals(rec.PaymentMethod, enum.PaymentMethodCash):
			res.Payments.Cash = res.Payments.Cash.Add(rec.Total)
		case enum.PaymentMethodEquals(rec.PaymentMethod, enum.PaymentMethodCard):
			res.Payments.Card = res.Payments.Card.Add(rec.Total)
		}

		for _, line := range rec.Items {
			lineTotal := line.Price.Mul(decimal.NewFromInt32(line.Quantity))
			if i, ok := index[line.Name]; ok {
				res.Items[i].QuantitySold += int64(line.Quantity)
				res.Items[i].TotalSold = res.Items[i].TotalSold.Add(lineTotal)
			} else {
				index[line.Name] = len(res.Items)
				res.Items = append(res.Items, ItemAggregate{
					Name:         line.Name,
					QuantitySold: int64(line.Quantity),
					TotalSold:    lineTotal,
				})
			}
		}
	}

	sort.SliceStable(res.Sales, func(i, j int) bool {
		if res.Sales[i].Date != res.Sales[j].Date {
			return res.Sales[i].Date < res.Sales[j].Date
		}
		return res.Sales[i].SaleNumber < res.Sales[j].SaleNumber
	})

	return res
}

// MostRecentFirst returns the matching sales ordered descending by
// (date, sale number). This is the live "orders today" shape; the chronological
// Sales slice is left untouched.
func (r Result) MostRecentFirst() []domain.SaleRecord {
	out := make([]domain.SaleRecord, len(r.Sales))
	for i, rec := range r.Sales {
		out[len(r.Sales)-1-i] = rec
	}
	return out
}

// SortItemsByName orders a rollup alphabetically, in place.
func SortItemsByName(items []ItemAggregate) {
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
}

// SortItemsByTotalSold orders a rollup by revenue, highest first, in place.
// Ties break alphabetically so the order is deterministic.
func SortItemsByTotalSold(items []ItemAggregate) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].TotalSold.Equal(items[j].TotalSold) {
			return items[i].TotalSold.GreaterThan(items[j].TotalSold)
		}
		return items[i].Name < items[j].Name
	})
}
