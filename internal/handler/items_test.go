package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/salepoint/api/internal/domain"
	"github.com/salepoint/api/internal/handler"
	"github.com/salepoint/api/internal/store/memory"
	"github.com/shopspring/decimal"
)

// fakeCatalogCache records cache traffic so tests can assert on it.
type fakeCatalogCache struct {
	entries     map[uuid.UUID][]domain.Item
	sets        int
	invalidates int
}

func newFakeCatalogCache() *fakeCatalogCache {
	return &fakeCatalogCache{entries: make(map[uuid.UUID][]domain.Item)}
}

func (f *fakeCatalogCache) GetItems(_ context.Context, merchantID uuid.UUID) ([]domain.Item, bool, error) {
	items, ok := f.entries[merchantID]
	return items, ok, nil
}

func (f *fakeCatalogCache) SetItems(_ context.Context, merchantID uuid.UUID, items []domain.Item, _ time.Duration) error {
	f.entries[merchantID] = items
	f.sets++
	return nil
}

func (f *fakeCatalogCache) InvalidateItems(_ context.Context, merchantID uuid.UUID) error {
	delete(f.entries, merchantID)
	f.invalidates++
	return nil
}

func newItemRouter(st *memory.Store, c *fakeCatalogCache) http.Handler {
	h := handler.NewItemHandler(st, c)
	r := chi.NewRouter()
	r.Route("/merchants/{mid}/items", h.RegisterRoutes)
	return r
}

func seedItem(t *testing.T, st *memory.Store, merchantID uuid.UUID, name, price, category string) *domain.Item {
	t.Helper()
	p, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price: %v", err)
	}
	it, err := st.CreateItem(context.Background(), domain.Item{
		MerchantID: merchantID,
		Name:       name,
		Price:      p,
		Category:   category,
	})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return it
}

func TestItems_List(t *testing.T) {
	st := memory.New()
	merchant := seedMerchant(t, st)
	seedItem(t, st, merchant.ID, "Tea", "2.50", "Drinks")
	seedItem(t, st, merchant.ID, "Cake", "10.00", "Bakery")
	seedItem(t, st, uuid.New(), "Other", "1.00", "")

	r := newItemRouter(st, newFakeCatalogCache())
	rr := doRequest(t, r, "GET", "/merchants/"+merchant.ID.String()+"/items/", merchant.ID, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeList(t, rr)
	if len(resp) != 2 {
		t.Fatalf("items: got %d, want 2", len(resp))
	}
	if resp[0]["name"] != "Cake" {
		t.Errorf("first item: got %v, want Cake (sorted by category, name)", resp[0]["name"])
	}
	if resp[0]["price"] != "10.00" {
		t.Errorf("price: got %v, want 10.00", resp[0]["price"])
	}
}

func TestItems_List_ServesFromCache(t *testing.T) {
	st := memory.New()
	merchant := seedMerchant(t, st)
	c := newFakeCatalogCache()
	r := newItemRouter(st, c)

	seedItem(t, st, merchant.ID, "Tea", "2.50", "Drinks")

	// First request misses and fills the cache.
	rr := doRequest(t, r, "GET", "/merchants/"+merchant.ID.String()+"/items/", merchant.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if c.sets != 1 {
		t.Fatalf("cache sets: got %d, want 1", c.sets)
	}

	// Mutate the store directly; the cached listing should still be served.
	seedItem(t, st, merchant.ID, "Cake", "10.00", "Bakery")

	rr = doRequest(t, r, "GET", "/merchants/"+merchant.ID.String()+"/items/", merchant.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := len(decodeList(t, rr)); got != 1 {
		t.Errorf("cached items: got %d, want 1", got)
	}
}

func TestItems_Create_InvalidatesCache(t *testing.T) {
	st := memory.New()
	merchant := seedMerchant(t, st)
	c := newFakeCatalogCache()
	r := newItemRouter(st, c)

	rr := doRequest(t, r, "POST", "/merchants/"+merchant.ID.String()+"/items/", merchant.ID, map[string]string{
		"name":     "Tea",
		"price":    "2.50",
		"category": "Drinks",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if c.invalidates != 1 {
		t.Errorf("cache invalidates: got %d, want 1", c.invalidates)
	}

	resp := decodeResponse(t, rr)
	if resp["price"] != "2.50" {
		t.Errorf("price: got %v, want 2.50", resp["price"])
	}
}

func TestItems_Create_InvalidPrice(t *testing.T) {
	st := memory.New()
	merchant := seedMerchant(t, st)
	r := newItemRouter(st, newFakeCatalogCache())

	for _, price := range []string{"", "abc", "-1.00"} {
		rr := doRequest(t, r, "POST", "/merchants/"+merchant.ID.String()+"/items/", merchant.ID, map[string]string{
			"name":  "Tea",
			"price": price,
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("price %q: status got %d, want %d", price, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestItems_Get(t *testing.T) {
	st := memory.New()
	merchant := seedMerchant(t, st)
	item := seedItem(t, st, merchant.ID, "Tea", "2.50", "Drinks")
	r := newItemRouter(st, newFakeCatalogCache())

	rr := doRequest(t, r, "GET", "/merchants/"+merchant.ID.String()+"/items/"+item.ID.String(), merchant.ID, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Tea" {
		t.Errorf("name: got %v, want Tea", resp["name"])
	}
}

func TestItems_Get_NotFound(t *testing.T) {
	st := memory.New()
	merchant := seedMerchant(t, st)
	r := newItemRouter(st, newFakeCatalogCache())

	rr := doRequest(t, r, "GET", "/merchants/"+merchant.ID.String()+"/items/"+uuid.New().String(), merchant.ID, nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestItems_Update(t *testing.T) {
	st := memory.New()
	merchant := seedMerchant(t, st)
	item := seedItem(t, st, merchant.ID, "Tea", "2.50", "Drinks")
	c := newFakeCatalogCache()
	r := newItemRouter(st, c)

	rr := doRequest(t, r, "PUT", "/merchants/"+merchant.ID.String()+"/items/"+item.ID.String(), merchant.ID, map[string]string{
		"name":     "Green Tea",
		"price":    "3.00",
		"category": "Drinks",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if c.invalidates != 1 {
		t.Errorf("cache invalidates: got %d, want 1", c.invalidates)
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Green Tea" || resp["price"] != "3.00" {
		t.Errorf("updated item: got %v / %v, want Green Tea / 3.00", resp["name"], resp["price"])
	}
}

func TestItems_Delete(t *testing.T) {
	st := memory.New()
	merchant := seedMerchant(t, st)
	item := seedItem(t, st, merchant.ID, "Tea", "2.50", "Drinks")
	c := newFakeCatalogCache()
	r := newItemRouter(st, c)

	rr := doRequest(t, r, "DELETE", "/merchants/"+merchant.ID.String()+"/items/"+item.ID.String(), merchant.ID, nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if c.invalidates != 1 {
		t.Errorf("cache invalidates: got %d, want 1", c.invalidates)
	}
}
