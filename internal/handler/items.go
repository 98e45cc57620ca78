package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/salepoint/api/internal/cache"
	"github.com/salepoint/api/internal/domain"
	"github.com/salepoint/api/internal/store"
	"github.com/shopspring/decimal"
)

const catalogTTL = 5 * time.Minute

// ItemStore defines the store methods needed by item handlers.
// Satisfied by store.Repository; narrow interface for testability.
type ItemStore interface {
	ListItems(ctx context.Context, merchantID uuid.UUID) ([]domain.Item, error)
	GetItem(ctx context.Context, merchantID, id uuid.UUID) (*domain.Item, error)
	CreateItem(ctx context.Context, it domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, it domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, merchantID, id uuid.UUID) error
}

// ItemHandler handles catalog item CRUD endpoints.
type ItemHandler struct {
	store ItemStore
	cache cache.CatalogCache
}

// NewItemHandler creates a new ItemHandler. A nil cache disables caching.
func NewItemHandler(store ItemStore, c cache.CatalogCache) *ItemHandler {
	if c == nil {
		c = cache.NoopCatalogCache{}
	}
	return &ItemHandler{store: store, cache: c}
}

// RegisterRoutes registers item CRUD endpoints on the given Chi router.
// Expected to be mounted inside a merchant-scoped subrouter: /merchants/{mid}/items
func (h *ItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type itemRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

type itemResponse struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toItemResponse(it *domain.Item) itemResponse {
	return itemResponse{
		ID:         it.ID,
		MerchantID: it.MerchantID,
		Name:       it.Name,
		Price:      it.Price.StringFixed(2),
		Category:   it.Category,
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}

func (h *ItemHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*itemRequest, decimal.Decimal, bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, decimal.Zero, false
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return nil, decimal.Zero, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative decimal"})
		return nil, decimal.Zero, false
	}
	return &req, price, true
}

// --- Handlers ---

// List returns the merchant's catalog, cache-first.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	items, hit, err := h.cache.GetItems(r.Context(), merchantID)
	if err != nil {
		// Cache trouble is not a request failure; fall through to the store.
		log.Printf("ERROR: catalog cache get: %v", err)
	}
	if !hit {
		items, err = h.store.ListItems(r.Context(), merchantID)
		if err != nil {
			log.Printf("ERROR: list items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if err := h.cache.SetItems(r.Context(), merchantID, items, catalogTTL); err != nil {
			log.Printf("ERROR: catalog cache set: %v", err)
		}
	}

	resp := make([]itemResponse, len(items))
	for i := range items {
		resp[i] = toItemResponse(&items[i])
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single item by ID.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	item, err := h.store.GetItem(r.Context(), merchantID, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: get item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Create adds a new item to the merchant's catalog.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	req, price, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	item, err := h.store.CreateItem(r.Context(), domain.Item{
		MerchantID: merchantID,
		Name:       req.Name,
		Price:      price,
		Category:   req.Category,
	})
	if err != nil {
		log.Printf("ERROR: create item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidate(r.Context(), merchantID)
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

// Update modifies an existing item.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	req, price, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	item, err := h.store.UpdateItem(r.Context(), domain.Item{
		ID:         itemID,
		MerchantID: merchantID,
		Name:       req.Name,
		Price:      price,
		Category:   req.Category,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidate(r.Context(), merchantID)
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Delete removes an item from the catalog. Past sale records keep their
// copied line snapshots, so deleting an item never rewrites history.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if err := h.store.DeleteItem(r.Context(), merchantID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: delete item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidate(r.Context(), merchantID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) invalidate(ctx context.Context, merchantID uuid.UUID) {
	if err := h.cache.InvalidateItems(ctx, merchantID); err != nil {
		log.Printf("ERROR: catalog cache invalidate: %v", err)
	}
}
