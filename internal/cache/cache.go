package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salepoint/api/internal/domain"
)

// CatalogCache fronts the per-merchant item list, the hottest read path on
// the register screen. A miss or a cache error falls through to the store;
// writes to the catalog invalidate the merchant's entry.
type CatalogCache interface {
	GetItems(ctx context.Context, merchantID uuid.UUID) ([]domain.Item, bool, error)
	SetItems(ctx context.Context, merchantID uuid.UUID, items []domain.Item, ttl time.Duration) error
	InvalidateItems(ctx context.Context, merchantID uuid.UUID) error
}

// NoopCatalogCache is used when no Redis address is configured.
type NoopCatalogCache struct{}

func (NoopCatalogCache) GetItems(_ context.Context, _ uuid.UUID) ([]domain.Item, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) SetItems(_ context.Context, _ uuid.UUID, _ []domain.Item, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) InvalidateItems(_ context.Context, _ uuid.UUID) error {
	return nil
}
