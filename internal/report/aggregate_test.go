package report

import (
	"testing"

	"github.com/google/uuid"
	"github.com/salepoint/api/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sale(date string, num int32, method, total string, items ...domain.SaleItem) domain.SaleRecord {
	return domain.SaleRecord{
		ID:            uuid.New(),
		SaleNumber:    num,
		Date:          date,
		Items:         items,
		Total:         dec(total),
		PaymentMethod: method,
	}
}

func line(name, price string, qty int32) domain.SaleItem {
	return domain.SaleItem{Name: name, Price: dec(price), Quantity: qty}
}

func mustFilter(t *testing.T, start, end string, methods []string) Filter {
	t.Helper()
	f, err := NewFilter(start, end, methods)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	return f
}

func findItem(t *testing.T, items []ItemAggregate, name string) ItemAggregate {
	t.Helper()
	for _, it := range items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("item %q not in rollup %v", name, items)
	return ItemAggregate{}
}

// Worked example from the reporting screens: two sales on one day, one cash
// and one card, sharing an item name across records.
func TestAggregate_Example(t *testing.T) {
	records := []domain.SaleRecord{
		sale("2024-03-07", 1, "Cash", "10.00", line("Tea", "2.50", 4)),
		sale("2024-03-07", 2, "Card", "15.00", line("Tea", "2.50", 2), line("Cake", "10.00", 1)),
	}
	res := Aggregate(records, mustFilter(t, "2024-03-07", "2024-03-07", nil))

	if len(res.Sales) != 2 {
		t.Fatalf("len(Sales) = %d, want 2", len(res.Sales))
	}
	if !res.Payments.Cash.Equal(dec("10.00")) {
		t.Errorf("cash = %s, want 10.00", res.Payments.Cash)
	}
	if !res.Payments.Card.Equal(dec("15.00")) {
		t.Errorf("card = %s, want 15.00", res.Payments.Card)
	}
	if !res.Payments.Grand.Equal(dec("25.00")) {
		t.Errorf("grand = %s, want 25.00", res.Payments.Grand)
	}

	tea := findItem(t, res.Items, "Tea")
	if tea.QuantitySold != 6 || !tea.TotalSold.Equal(dec("15.00")) {
		t.Errorf("Tea = %d/%s, want 6/15.00", tea.QuantitySold, tea.TotalSold)
	}
	cake := findItem(t, res.Items, "Cake")
	if cake.QuantitySold != 1 || !cake.TotalSold.Equal(dec("10.00")) {
		t.Errorf("Cake = %d/%s, want 1/10.00", cake.QuantitySold, cake.TotalSold)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	res := Aggregate(nil, mustFilter(t, "2024-03-07", "2024-03-07", nil))

	if len(res.Sales) != 0 || len(res.Items) != 0 {
		t.Errorf("expected empty outputs, got %d sales %d items", len(res.Sales), len(res.Items))
	}
	if !res.Payments.Cash.IsZero() || !res.Payments.Card.IsZero() || !res.Payments.Grand.IsZero() {
		t.Errorf("expected zero totals, got %+v", res.Payments)
	}
}

func TestAggregate_RangeBoundsInclusive(t *testing.T) {
	records := []domain.SaleRecord{
		sale("2024-03-01", 1, "Cash", "1.00"),
		sale("2024-03-02", 1, "Cash", "2.00"),
		sale("2024-03-05", 1, "Cash", "5.00"),
		sale("2024-03-06", 1, "Cash", "6.00"),
	}
	res := Aggregate(records, mustFilter(t, "2024-03-02", "2024-03-05", nil))

	if len(res.Sales) != 2 {
		t.Fatalf("len(Sales) = %d, want 2", len(res.Sales))
	}
	if res.Sales[0].Date != "2024-03-02" || res.Sales[1].Date != "2024-03-05" {
		t.Errorf("dates = %q, %q; boundary days must be included and neighbors excluded",
			res.Sales[0].Date, res.Sales[1].Date)
	}
	if !res.Payments.Grand.Equal(dec("7.00")) {
		t.Errorf("grand = %s, want 7.00", res.Payments.Grand)
	}
}

func TestAggregate_PaymentFilterCaseInsensitive(t *testing.T) {
	records := []domain.SaleRecord{
		sale("2024-03-07", 1, "cash", "1.00"),
		sale("2024-03-07", 2, "Cash", "2.00"),
		sale("2024-03-07", 3, "CASH", "3.00"),
		sale("2024-03-07", 4, "Card", "4.00"),
	}
	res := Aggregate(records, mustFilter(t, "2024-03-07", "2024-03-07", []string{"Cash"}))

	if len(res.Sales) != 3 {
		t.Fatalf("len(Sales) = %d, want 3 (all cash spellings)", len(res.Sales))
	}
	if !res.Payments.Cash.Equal(dec("6.00")) {
		t.Errorf("cash = %s, want 6.00", res.Payments.Cash)
	}
	if !res.Payments.Card.IsZero() {
		t.Errorf("card = %s, want 0 (filtered out)", res.Payments.Card)
	}
}

func TestAggregate_SalesOrdering(t *testing.T) {
	records := []domain.SaleRecord{
		sale("2024-03-08", 1, "Cash", "1.00"),
		sale("2024-03-07", 3, "Cash", "1.00"),
		sale("2024-03-07", 1, "Cash", "1.00"),
		sale("2024-03-07", 2, "Cash", "1.00"),
	}
	res := Aggregate(records, mustFilter(t, "2024-03-07", "2024-03-08", nil))

	want := []struct {
		date string
		num  int32
	}{
		{"2024-03-07", 1}, {"2024-03-07", 2}, {"2024-03-07", 3}, {"2024-03-08", 1},
	}
	for i, w := range want {
		if res.Sales[i].Date != w.date || res.Sales[i].SaleNumber != w.num {
			t.Errorf("Sales[%d] = (%s, %d), want (%s, %d)",
				i, res.Sales[i].Date, res.Sales[i].SaleNumber, w.date, w.num)
		}
	}

	recent := res.MostRecentFirst()
	for i := range recent {
		j := len(want) - 1 - i
		if recent[i].Date != want[j].date || recent[i].SaleNumber != want[j].num {
			t.Errorf("MostRecentFirst[%d] = (%s, %d), want (%s, %d)",
				i, recent[i].Date, recent[i].SaleNumber, want[j].date, want[j].num)
		}
	}

	// MostRecentFirst must not disturb the chronological slice.
	if res.Sales[0].Date != "2024-03-07" || res.Sales[0].SaleNumber != 1 {
		t.Errorf("Sales mutated by MostRecentFirst")
	}
}

func TestAggregate_EmptyItemsRecord(t *testing.T) {
	records := []domain.SaleRecord{
		sale("2024-03-07", 1, "Card", "12.00"),
	}
	res := Aggregate(records, mustFilter(t, "2024-03-07", "2024-03-07", nil))

	if len(res.Sales) != 1 {
		t.Errorf("len(Sales) = %d, want 1", len(res.Sales))
	}
	if len(res.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0 (no line items)", len(res.Items))
	}
	if !res.Payments.Grand.Equal(dec("12.00")) {
		t.Errorf("grand = %s, want 12.00 (record total still counts)", res.Payments.Grand)
	}
}

func TestAggregate_DuplicateLineNamesAccumulate(t *testing.T) {
	// The same item name twice in one record is two distinct lines, and both
	// contribute to a single rollup bucket.
	records := []domain.SaleRecord{
		sale("2024-03-07", 1, "Cash", "7.50",
			line("Tea", "2.50", 2),
			line("Tea", "2.50", 1)),
	}
	res := Aggregate(records, mustFilter(t, "2024-03-07", "2024-03-07", nil))

	if len(res.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(res.Items))
	}
	tea := res.Items[0]
	if tea.QuantitySold != 3 || !tea.TotalSold.Equal(dec("7.50")) {
		t.Errorf("Tea = %d/%s, want 3/7.50", tea.QuantitySold, tea.TotalSold)
	}
}

// Conservation: the grand total equals the sum of matching record totals, and
// the rollup revenue equals the sum over matching records of price*quantity.
func TestAggregate_Conservation(t *testing.T) {
	records := []domain.SaleRecord{
		sale("2024-03-07", 1, "Cash", "10.30", line("Tea", "2.575", 4)),
		sale("2024-03-07", 2, "Card", "0.03", line("Penny Sweet", "0.01", 3)),
		sale("2024-03-08", 1, "cash", "99.99", line("Platter", "33.33", 3)),
	}
	res := Aggregate(records, mustFilter(t, "2024-03-07", "2024-03-08", nil))

	wantGrand := decimal.Zero
	for _, r := range records {
		wantGrand = wantGrand.Add(r.Total)
	}
	if !res.Payments.Grand.Equal(wantGrand) {
		t.Errorf("grand = %s, want %s", res.Payments.Grand, wantGrand)
	}
	if !res.Payments.Cash.Add(res.Payments.Card).Equal(wantGrand) {
		t.Errorf("cash+card = %s, want %s", res.Payments.Cash.Add(res.Payments.Card), wantGrand)
	}

	wantItems := decimal.Zero
	for _, r := range records {
		for _, l := range r.Items {
			wantItems = wantItems.Add(l.Price.Mul(decimal.NewFromInt32(l.Quantity)))
		}
	}
	gotItems := decimal.Zero
	for _, it := range res.Items {
		gotItems = gotItems.Add(it.TotalSold)
	}
	if !gotItems.Equal(wantItems) {
		t.Errorf("sum(rollup) = %s, want %s", gotItems, wantItems)
	}
}

// Sub-cent repetition that drifts under float64 must sum exactly here.
func TestAggregate_NoCentDrift(t *testing.T) {
	var records []domain.SaleRecord
	for i := int32(1); i <= 1000; i++ {
		records = append(records, sale("2024-03-07", i, "Cash", "0.10", line("Gum", "0.10", 1)))
	}
	res := Aggregate(records, mustFilter(t, "2024-03-07", "2024-03-07", nil))

	if !res.Payments.Grand.Equal(dec("100.00")) {
		t.Errorf("grand = %s, want exactly 100.00", res.Payments.Grand)
	}
	gum := findItem(t, res.Items, "Gum")
	if !gum.TotalSold.Equal(dec("100.00")) {
		t.Errorf("Gum total = %s, want exactly 100.00", gum.TotalSold)
	}
}

// Aggregation is idempotent: same inputs, same outputs, no hidden state.
func TestAggregate_Idempotent(t *testing.T) {
	records := []domain.SaleRecord{
		sale("2024-03-07", 1, "Cash", "10.00", line("Tea", "2.50", 4)),
		sale("2024-03-07", 2, "Card", "15.00", line("Cake", "10.00", 1), line("Tea", "2.50", 2)),
	}
	f := mustFilter(t, "2024-03-07", "2024-03-07", nil)

	first := Aggregate(records, f)
	second := Aggregate(records, f)

	if len(first.Sales) != len(second.Sales) || len(first.Items) != len(second.Items) {
		t.Fatalf("repeat call changed shape: %d/%d vs %d/%d",
			len(first.Sales), len(first.Items), len(second.Sales), len(second.Items))
	}
	if !first.Payments.Grand.Equal(second.Payments.Grand) ||
		!first.Payments.Cash.Equal(second.Payments.Cash) ||
		!first.Payments.Card.Equal(second.Payments.Card) {
		t.Errorf("repeat call changed totals: %+v vs %+v", first.Payments, second.Payments)
	}
	for _, it := range first.Items {
		other := findItem(t, second.Items, it.Name)
		if it.QuantitySold != other.QuantitySold || !it.TotalSold.Equal(other.TotalSold) {
			t.Errorf("rollup for %q differs: %+v vs %+v", it.Name, it, other)
		}
	}
}

// Tolerates data-quality issues: negative change on an old cash record must
// not affect aggregation.
func TestAggregate_ToleratesNegativeChange(t *testing.T) {
	paid := dec("5.00")
	change := dec("-5.00")
	rec := sale("2024-03-07", 1, "Cash", "10.00", line("Tea", "2.50", 4))
	rec.CashPaid = &paid
	rec.Change = &change

	res := Aggregate([]domain.SaleRecord{rec}, mustFilter(t, "2024-03-07", "2024-03-07", nil))
	if len(res.Sales) != 1 || !res.Payments.Cash.Equal(dec("10.00")) {
		t.Errorf("short-paid record dropped or mistotaled: %+v", res.Payments)
	}
}

func TestSortItemsByName(t *testing.T) {
	items := []ItemAggregate{
		{Name: "Tea", TotalSold: dec("15.00")},
		{Name: "Cake", TotalSold: dec("10.00")},
		{Name: "Apple", TotalSold: dec("1.00")},
	}
	SortItemsByName(items)
	if items[0].Name != "Apple" || items[1].Name != "Cake" || items[2].Name != "Tea" {
		t.Errorf("order = %v", items)
	}
}

func TestSortItemsByTotalSold(t *testing.T) {
	items := []ItemAggregate{
		{Name: "Apple", TotalSold: dec("1.00")},
		{Name: "Tea", TotalSold: dec("15.00")},
		{Name: "Biscuit", TotalSold: dec("15.00")},
	}
	SortItemsByTotalSold(items)
	if items[0].Name != "Biscuit" || items[1].Name != "Tea" || items[2].Name != "Apple" {
		t.Errorf("order = %v", items)
	}
}
