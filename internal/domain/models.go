package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Merchant is a single POS account. Every other entity is scoped to one
// merchant; there is no cross-merchant access.
type Merchant struct {
	ID             uuid.UUID `json:"id"`
	BusinessName   string    `json:"business_name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Timezone       string    `json:"timezone"`
	CreatedAt      time.Time `json:"created_at"`
}

// Category groups items on the catalog screens. Items reference categories
// by name, matching how the mobile clients stored them.
type Category struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Item is a sellable catalog entry.
type Item struct {
	ID         uuid.UUID       `json:"id"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Category   string          `json:"category"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// SaleItem is one line of a committed sale. Lines are kept in the order they
// were rung up; duplicate names are distinct lines, not merged.
type SaleItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int32           `json:"quantity"`
}

// SaleRecord is one completed checkout. Records are append-only: they are
// written once at commit time and never edited or deleted.
//
// Date is the merchant-local calendar day in YYYY-MM-DD form and is the sole
// field used for day bucketing and range filtering. CreatedAt is the commit
// wall-clock time, informational only.
//
// Total is the committed per-sale total; report code trusts it rather than
// re-summing Items. CashPaid and Change are set only for cash sales. A
// negative Change indicates a data-quality problem in an old record and is
// tolerated at read time.
type SaleRecord struct {
	ID            uuid.UUID        `json:"id"`
	MerchantID    uuid.UUID        `json:"merchant_id"`
	SaleNumber    int32            `json:"sale_number"`
	Date          string           `json:"date"`
	Items         []SaleItem       `json:"items"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod string           `json:"payment_method"`
	CashPaid      *decimal.Decimal `json:"cash_paid,omitempty"`
	Change        *decimal.Decimal `json:"change,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
