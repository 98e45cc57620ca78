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
	"github.com/salepoint/api/internal/report"
	"github.com/salepoint/api/internal/service"
	"github.com/salepoint/api/internal/store"
	"github.com/salepoint/api/internal/ws"
)

// SaleReadStore defines the store methods needed to read sales back.
// Satisfied by store.Repository; narrow interface for testability.
type SaleReadStore interface {
	GetMerchantByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	FetchSaleRecords(ctx context.Context, merchantID uuid.UUID, startDate, endDate string) ([]domain.SaleRecord, error)
	GetSaleRecord(ctx context.Context, merchantID, id uuid.UUID) (*domain.SaleRecord, error)
}

// SaleBroadcaster pushes sale events to connected register screens.
// Satisfied by *ws.Hub.
type SaleBroadcaster interface {
	BroadcastToMerchant(merchantID uuid.UUID, event ws.Event)
}

// SalesHandler handles checkout and the sales feed.
type SalesHandler struct {
	store    SaleReadStore
	checkout *service.CheckoutService
	hub      SaleBroadcaster
}

// NewSalesHandler creates a new SalesHandler. A nil hub disables broadcasts.
func NewSalesHandler(store SaleReadStore, checkout *service.CheckoutService, hub SaleBroadcaster) *SalesHandler {
	return &SalesHandler{store: store, checkout: checkout, hub: hub}
}

// RegisterRoutes registers sales endpoints on the given Chi router.
// Expected to be mounted inside a merchant-scoped subrouter: /merchants/{mid}/sales
func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Checkout)
	r.Get("/today", h.Today)
	r.Get("/{id}", h.Get)
}

// --- Request / Response types ---

type checkoutRequest struct {
	Items         []checkoutItemRequest `json:"items"`
	PaymentMethod string                `json:"payment_method"`
	CashPaid      string                `json:"cash_paid,omitempty"`
}

type checkoutItemRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int32  `json:"quantity"`
}

type saleItemResponse struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int32  `json:"quantity"`
}

type saleResponse struct {
	ID            uuid.UUID          `json:"id"`
	MerchantID    uuid.UUID          `json:"merchant_id"`
	SaleNumber    int32              `json:"sale_number"`
	Date          string             `json:"date"`
	Items         []saleItemResponse `json:"items"`
	Total         string             `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	CashPaid      *string            `json:"cash_paid,omitempty"`
	Change        *string            `json:"change,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

type todayResponse struct {
	Date     string         `json:"date"`
	Sales    []saleResponse `json:"sales"`
	Payments paymentTotals  `json:"payments"`
}

type paymentTotals struct {
	Cash  string `json:"cash"`
	Card  string `json:"card"`
	Grand string `json:"grand"`
}

func toSaleResponse(rec *domain.SaleRecord) saleResponse {
	items := make([]saleItemResponse, len(rec.Items))
	for i, it := range rec.Items {
		items[i] = saleItemResponse{
			Name:     it.Name,
			Price:    it.Price.StringFixed(2),
			Quantity: it.Quantity,
		}
	}
	resp := saleResponse{
		ID:            rec.ID,
		MerchantID:    rec.MerchantID,
		SaleNumber:    rec.SaleNumber,
		Date:          rec.Date,
		Items:         items,
		Total:         rec.Total.StringFixed(2),
		PaymentMethod: rec.PaymentMethod,
		CreatedAt:     rec.CreatedAt,
	}
	if rec.CashPaid != nil {
		s := rec.CashPaid.StringFixed(2)
		resp.CashPaid = &s
	}
	if rec.Change != nil {
		s := rec.Change.StringFixed(2)
		resp.Change = &s
	}
	return resp
}

func toPaymentTotals(p report.PaymentTotals) paymentTotals {
	return paymentTotals{
		Cash:  p.Cash.StringFixed(2),
		Card:  p.Card.StringFixed(2),
		Grand: p.Grand.StringFixed(2),
	}
}

// merchantLocation resolves the merchant's configured timezone, falling back
// to UTC if it is missing or unloadable.
func (h *SalesHandler) merchantLocation(ctx context.Context, merchantID uuid.UUID) *time.Location {
	merchant, err := h.store.GetMerchantByID(ctx, merchantID)
	if err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(merchant.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// --- Handlers ---

// Checkout commits a sale from the register screen and broadcasts it to
// other screens watching the same merchant.
func (h *SalesHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.CheckoutItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.CheckoutItem{Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}

	rec, err := h.checkout.Checkout(r.Context(), service.CheckoutRequest{
		MerchantID:    merchantID,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		CashPaid:      req.CashPaid,
		Location:      h.merchantLocation(r.Context(), merchantID),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSaleNumberConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "register is busy, try again"})
		case isCheckoutValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: checkout: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := toSaleResponse(rec)
	if h.hub != nil {
		if payload, err := json.Marshal(resp); err == nil {
			h.hub.BroadcastToMerchant(merchantID, ws.Event{Type: "sale.created", Payload: payload})
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Today returns the live feed for the current merchant day, newest sale
// first, plus running payment totals.
func (h *SalesHandler) Today(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	day := report.Day(time.Now(), h.merchantLocation(r.Context(), merchantID))

	records, err := h.store.FetchSaleRecords(r.Context(), merchantID, day, day)
	if err != nil {
		log.Printf("ERROR: fetch today's sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	filter, err := report.SingleDay(day, nil)
	if err != nil {
		log.Printf("ERROR: build today filter: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	result := report.Aggregate(records, filter)
	feed := result.MostRecentFirst()

	sales := make([]saleResponse, len(feed))
	for i := range feed {
		sales[i] = toSaleResponse(&feed[i])
	}

	writeJSON(w, http.StatusOK, todayResponse{
		Date:     day,
		Sales:    sales,
		Payments: toPaymentTotals(result.Payments),
	})
}

// Get returns a single sale record, used for the receipt detail screen.
func (h *SalesHandler) Get(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	saleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sale ID"})
		return
	}

	rec, err := h.store.GetSaleRecord(r.Context(), merchantID, saleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "sale not found"})
			return
		}
		log.Printf("ERROR: get sale: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSaleResponse(rec))
}

func isCheckoutValidationError(err error) bool {
	for _, target := range []error{
		service.ErrEmptyItems,
		service.ErrInvalidQuantity,
		service.ErrInvalidPrice,
		service.ErrMissingItemName,
		service.ErrInvalidPaymentMethod,
		service.ErrCashPaidRequired,
		service.ErrInsufficientCash,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
