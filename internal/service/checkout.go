package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salepoint/api/internal/domain"
	"github.com/salepoint/api/internal/enum"
	"github.com/salepoint/api/internal/report"
	"github.com/salepoint/api/internal/store"
	"github.com/shopspring/decimal"
)

const maxSaleNumberRetries = 3

// Errors returned by the checkout service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidPrice         = errors.New("price must be >= 0")
	ErrMissingItemName      = errors.New("item name is required")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrCashPaidRequired     = errors.New("cash_paid is required for cash payments")
	ErrInsufficientCash     = errors.New("cash_paid does not cover the total")
)

// SaleStore defines the store methods needed to commit a sale.
// Satisfied by any store.Repository; narrow interface for testability.
type SaleStore interface {
	CountSalesOnDate(ctx context.Context, merchantID uuid.UUID, date string) (int, error)
	CreateSaleRecord(ctx context.Context, rec domain.SaleRecord) (*domain.SaleRecord, error)
}

// CheckoutRequest is the validated input for committing a sale.
type CheckoutRequest struct {
	MerchantID    uuid.UUID
	Items         []CheckoutItem
	PaymentMethod string
	CashPaid      string // decimal string, cash payments only

	// Location is the merchant's configured timezone, which decides the
	// calendar day the sale lands on. Nil uses the service default.
	Location *time.Location
}

// CheckoutItem is a single cart line.
type CheckoutItem struct {
	Name     string
	Price    string // decimal string
	Quantity int32
}

// CheckoutService turns a cart into a committed SaleRecord: it validates the
// lines, totals them with decimal arithmetic, allocates the per-day sale
// number, and writes the record. Sales are never backdated; the sale day is
// always "today" on the merchant clock.
type CheckoutService struct {
	store SaleStore
	loc   *time.Location
	now   func() time.Time
}

func NewCheckoutService(st SaleStore, loc *time.Location) *CheckoutService {
	if loc == nil {
		loc = time.UTC
	}
	return &CheckoutService{store: st, loc: loc, now: time.Now}
}

// AllocateSaleNumber returns the next sale number for the given merchant and
// day: the count of existing sales plus one, so numbering starts at 1 each
// calendar day.
//
// Counting and inserting are separate steps, so two concurrent checkouts can
// read the same count. The unique (merchant, date, number) key in the store
// turns that race into store.ErrSaleNumberConflict, and Checkout re-allocates
// and retries -- the same guard-plus-retry approach the rest of the codebase
// uses for generated sequence numbers.
func (s *CheckoutService) AllocateSaleNumber(ctx context.Context, merchantID uuid.UUID, date string) (int32, error) {
	count, err := s.store.CountSalesOnDate(ctx, merchantID, date)
	if err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return int32(count) + 1, nil
}

// Checkout validates the cart and commits the sale. Nothing is written if
// validation or allocation fails; a store failure aborts the whole commit.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*domain.SaleRecord, error) {
	method, ok := enum.NormalizePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, ErrInvalidPaymentMethod
	}

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	total := decimal.Zero
	lines := make([]domain.SaleItem, 0, len(req.Items))
	for i, item := range req.Items {
		if item.Name == "" {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrMissingItemName)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		price, err := decimal.NewFromString(item.Price)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidPrice)
		}
		lines = append(lines, domain.SaleItem{Name: item.Name, Price: price, Quantity: item.Quantity})
		total = total.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
	}

	loc := s.loc
	if req.Location != nil {
		loc = req.Location
	}

	rec := domain.SaleRecord{
		MerchantID:    req.MerchantID,
		Date:          report.Day(s.now(), loc),
		Items:         lines,
		Total:         total,
		PaymentMethod: method,
	}

	if method == enum.PaymentMethodCash {
		if req.CashPaid == "" {
			return nil, ErrCashPaidRequired
		}
		paid, err := decimal.NewFromString(req.CashPaid)
		if err != nil {
			return nil, ErrCashPaidRequired
		}
		if paid.LessThan(total) {
			return nil, ErrInsufficientCash
		}
		change := paid.Sub(total)
		rec.CashPaid = &paid
		rec.Change = &change
	}

	// Retry loop: re-allocate on sale number conflicts from concurrent
	// checkouts by the same merchant.
	var lastErr error
	for attempt := 0; attempt < maxSaleNumberRetries; attempt++ {
		num, err := s.AllocateSaleNumber(ctx, req.MerchantID, rec.Date)
		if err != nil {
			return nil, err
		}
		rec.SaleNumber = num

		created, err := s.store.CreateSaleRecord(ctx, rec)
		if err == nil {
			return created, nil
		}
		if errors.Is(err, store.ErrSaleNumberConflict) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}
