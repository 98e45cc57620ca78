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
	"github.com/salepoint/api/internal/domain"
	"github.com/salepoint/api/internal/store"
)

// ProfileStore defines the store methods needed by profile handlers.
// Satisfied by store.Repository; narrow interface for testability.
type ProfileStore interface {
	GetMerchantByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	UpdateMerchant(ctx context.Context, m domain.Merchant) (*domain.Merchant, error)
}

// ProfileHandler serves the merchant's own account settings.
type ProfileHandler struct {
	store ProfileStore
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// RegisterRoutes registers profile endpoints on the given Chi router.
// Expected to be mounted inside a merchant-scoped subrouter: /merchants/{mid}/profile
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

type updateProfileRequest struct {
	BusinessName string `json:"business_name"`
	Timezone     string `json:"timezone"`
}

// Get returns the merchant's profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	merchant, err := h.store.GetMerchantByID(r.Context(), merchantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "merchant not found"})
			return
		}
		log.Printf("ERROR: get merchant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMerchantResponse(merchant))
}

// Update changes the business name and timezone. The timezone sets which
// calendar day new sales land on, so past sale dates are left untouched.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.BusinessName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "business_name is required"})
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid timezone"})
		return
	}

	merchant, err := h.store.UpdateMerchant(r.Context(), domain.Merchant{
		ID:           merchantID,
		BusinessName: req.BusinessName,
		Timezone:     req.Timezone,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "merchant not found"})
			return
		}
		log.Printf("ERROR: update merchant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMerchantResponse(merchant))
}
