// Package memory is an in-process Repository used by unit tests and local
// development without a database. Behavior mirrors the postgres store,
// including the unique (merchant, date, sale number) guard.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/salepoint/api/internal/domain"
	"github.com/salepoint/api/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	merchants  map[uuid.UUID]domain.Merchant
	categories map[uuid.UUID]domain.Category
	items      map[uuid.UUID]domain.Item
	sales      map[uuid.UUID]domain.SaleRecord
}

func New() *Store {
	return &Store{
		merchants:  make(map[uuid.UUID]domain.Merchant),
		categories: make(map[uuid.UUID]domain.Category),
		items:      make(map[uuid.UUID]domain.Item),
		sales:      make(map[uuid.UUID]domain.SaleRecord),
	}
}

// --- Merchants ---

func (s *Store) CreateMerchant(_ context.Context, m domain.Merchant) (*domain.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.merchants {
		if strings.EqualFold(existing.Email, m.Email) {
			return nil, store.ErrDuplicateEmail
		}
	}

	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	s.merchants[m.ID] = m
	created := m
	return &created, nil
}

func (s *Store) GetMerchantByEmail(_ context.Context, email string) (*domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.merchants {
		if strings.EqualFold(m.Email, email) {
			found := m
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetMerchantByID(_ context.Context, id uuid.UUID) (*domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.merchants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := m
	return &found, nil
}

func (s *Store) UpdateMerchant(_ context.Context, m domain.Merchant) (*domain.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.merchants[m.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	existing.BusinessName = m.BusinessName
	existing.Timezone = m.Timezone
	s.merchants[m.ID] = existing
	updated := existing
	return &updated, nil
}

// --- Categories ---

func (s *Store) ListCategories(_ context.Context, merchantID uuid.UUID) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Category, 0)
	for _, c := range s.categories {
		if c.MerchantID == merchantID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) CreateCategory(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	s.categories[c.ID] = c
	created := c
	return &created, nil
}

func (s *Store) UpdateCategory(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[c.ID]
	if !ok || existing.MerchantID != c.MerchantID {
		return nil, store.ErrNotFound
	}
	existing.Name = c.Name
	s.categories[c.ID] = existing
	updated := existing
	return &updated, nil
}

func (s *Store) DeleteCategory(_ context.Context, merchantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[id]
	if !ok || existing.MerchantID != merchantID {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// --- Items ---

func (s *Store) ListItems(_ context.Context, merchantID uuid.UUID) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Item, 0)
	for _, it := range s.items {
		if it.MerchantID == merchantID {
			result = append(result, it)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *Store) GetItem(_ context.Context, merchantID, id uuid.UUID) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok || it.MerchantID != merchantID {
		return nil, store.ErrNotFound
	}
	found := it
	return &found, nil
}

func (s *Store) CreateItem(_ context.Context, it domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	it.ID = uuid.New()
	it.CreatedAt = now
	it.UpdatedAt = now
	s.items[it.ID] = it
	created := it
	return &created, nil
}

func (s *Store) UpdateItem(_ context.Context, it domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[it.ID]
	if !ok || existing.MerchantID != it.MerchantID {
		return nil, store.ErrNotFound
	}
	existing.Name = it.Name
	existing.Price = it.Price
	existing.Category = it.Category
	existing.UpdatedAt = time.Now()
	s.items[it.ID] = existing
	updated := existing
	return &updated, nil
}

func (s *Store) DeleteItem(_ context.Context, merchantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[id]
	if !ok || existing.MerchantID != merchantID {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// --- Sales ---

func (s *Store) CreateSaleRecord(_ context.Context, rec domain.SaleRecord) (*domain.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sales {
		if existing.MerchantID == rec.MerchantID &&
			existing.Date == rec.Date &&
			existing.SaleNumber == rec.SaleNumber {
			return nil, store.ErrSaleNumberConflict
		}
	}

	rec.ID = uuid.New()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.sales[rec.ID] = rec
	created := rec
	return &created, nil
}

func (s *Store) CountSalesOnDate(_ context.Context, merchantID uuid.UUID, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.sales {
		if rec.MerchantID == merchantID && rec.Date == date {
			count++
		}
	}
	return count, nil
}

func (s *Store) FetchSaleRecords(_ context.Context, merchantID uuid.UUID, startDate, endDate string) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SaleRecord, 0)
	for _, rec := range s.sales {
		if rec.MerchantID == merchantID && rec.Date >= startDate && rec.Date <= endDate {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].SaleNumber < result[j].SaleNumber
	})
	return result, nil
}

func (s *Store) GetSaleRecord(_ context.Context, merchantID, id uuid.UUID) (*domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sales[id]
	if !ok || rec.MerchantID != merchantID {
		return nil, store.ErrNotFound
	}
	found := rec
	return &found, nil
}
