package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/salepoint/api/internal/domain"
)

// Errors returned by Repository implementations. Handler and service code
// branches on these with errors.Is; anything else is a store failure to be
// surfaced to the caller unmodified.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrSaleNumberConflict = errors.New("sale number already taken for this day")
)

// Repository is the persistence boundary. Sale records are append-only:
// there is no update or delete, matching the checkout screens, and reads
// within one call see a consistent snapshot.
type Repository interface {
	// Merchants
	CreateMerchant(ctx context.Context, m domain.Merchant) (*domain.Merchant, error)
	GetMerchantByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	GetMerchantByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	UpdateMerchant(ctx context.Context, m domain.Merchant) (*domain.Merchant, error)

	// Categories
	ListCategories(ctx context.Context, merchantID uuid.UUID) ([]domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, merchantID, id uuid.UUID) error

	// Items
	ListItems(ctx context.Context, merchantID uuid.UUID) ([]domain.Item, error)
	GetItem(ctx context.Context, merchantID, id uuid.UUID) (*domain.Item, error)
	CreateItem(ctx context.Context, it domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, it domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, merchantID, id uuid.UUID) error

	// Sales
	CreateSaleRecord(ctx context.Context, rec domain.SaleRecord) (*domain.SaleRecord, error)
	CountSalesOnDate(ctx context.Context, merchantID uuid.UUID, date string) (int, error)
	FetchSaleRecords(ctx context.Context, merchantID uuid.UUID, startDate, endDate string) ([]domain.SaleRecord, error)
	GetSaleRecord(ctx context.Context, merchantID, id uuid.UUID) (*domain.SaleRecord, error)
}
