package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/salepoint/api/internal/domain"
	"github.com/salepoint/api/internal/report"
)

// ReportsStore defines the store methods needed by report handlers.
// Satisfied by store.Repository; narrow interface for testability.
type ReportsStore interface {
	GetMerchantByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	FetchSaleRecords(ctx context.Context, merchantID uuid.UUID, startDate, endDate string) ([]domain.SaleRecord, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers merchant-scoped report endpoints.
// Expected to be mounted inside a merchant-scoped subrouter: /merchants/{mid}/reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily", h.Daily)
	r.Get("/range", h.Range)
	r.Get("/sold-items", h.SoldItems)
}

// --- Response types ---

type itemAggregateResponse struct {
	Name         string `json:"name"`
	QuantitySold int64  `json:"quantity_sold"`
	TotalSold    string `json:"total_sold"`
}

type dailyReportResponse struct {
	Date       string                  `json:"date"`
	SalesCount int                     `json:"sales_count"`
	Payments   paymentTotals           `json:"payments"`
	Items      []itemAggregateResponse `json:"items"`
	Sales      []saleResponse          `json:"sales"`
}

type rangeReportResponse struct {
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	SalesCount int           `json:"sales_count"`
	Payments   paymentTotals `json:"payments"`
}

// --- Handlers ---

// Daily returns the full report for a single calendar day: chronological
// sales, payment totals, and the item rollup sorted by name.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	day := r.URL.Query().Get("date")
	if day == "" {
		day = report.Day(time.Now(), h.merchantLocation(r.Context(), merchantID))
	} else if _, err := report.ParseDay(day); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	filter, err := report.SingleDay(day, parseMethods(r))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, ok := h.aggregate(w, r, merchantID, filter)
	if !ok {
		return
	}

	report.SortItemsByName(result.Items)

	sales := make([]saleResponse, len(result.Sales))
	for i := range result.Sales {
		sales[i] = toSaleResponse(&result.Sales[i])
	}

	writeJSON(w, http.StatusOK, dailyReportResponse{
		Date:       day,
		SalesCount: len(result.Sales),
		Payments:   toPaymentTotals(result.Payments),
		Items:      toItemAggregates(result.Items),
		Sales:      sales,
	})
}

// Range returns payment totals over an inclusive date range.
func (h *ReportsHandler) Range(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	start, end := h.parseRange(r, merchantID)
	filter, err := report.NewFilter(start, end, parseMethods(r))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, ok := h.aggregate(w, r, merchantID, filter)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, rangeReportResponse{
		StartDate:  start,
		EndDate:    end,
		SalesCount: len(result.Sales),
		Payments:   toPaymentTotals(result.Payments),
	})
}

// SoldItems returns the item rollup over a date range, best sellers first.
// ?sort=name switches to alphabetical order.
func (h *ReportsHandler) SoldItems(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant ID"})
		return
	}

	start, end := h.parseRange(r, merchantID)
	filter, err := report.NewFilter(start, end, parseMethods(r))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, ok := h.aggregate(w, r, merchantID, filter)
	if !ok {
		return
	}

	if r.URL.Query().Get("sort") == "name" {
		report.SortItemsByName(result.Items)
	} else {
		report.SortItemsByTotalSold(result.Items)
	}

	writeJSON(w, http.StatusOK, toItemAggregates(result.Items))
}

// --- Helpers ---

func (h *ReportsHandler) aggregate(w http.ResponseWriter, r *http.Request, merchantID uuid.UUID, filter report.Filter) (report.Result, bool) {
	records, err := h.store.FetchSaleRecords(r.Context(), merchantID, filter.Start, filter.End)
	if err != nil {
		log.Printf("ERROR: fetch sale records: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return report.Result{}, false
	}
	return report.Aggregate(records, filter), true
}

func (h *ReportsHandler) merchantLocation(ctx context.Context, merchantID uuid.UUID) *time.Location {
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

// parseRange reads start_date and end_date query params, defaulting to the
// last 30 merchant-local days. Validation happens in report.NewFilter.
func (h *ReportsHandler) parseRange(r *http.Request, merchantID uuid.UUID) (string, string) {
	loc := h.merchantLocation(r.Context(), merchantID)
	now := time.Now().In(loc)

	start := report.Day(now.AddDate(0, 0, -30), loc)
	end := report.Day(now, loc)

	if s := r.URL.Query().Get("start_date"); s != "" {
		start = s
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		end = s
	}
	return start, end
}

// parseMethods reads the methods query param as a comma-separated list.
// Omitted means "all methods"; present-but-empty is kept as an empty set so
// the filter rejects it.
func parseMethods(r *http.Request) []string {
	if !r.URL.Query().Has("methods") {
		return nil
	}
	raw := r.URL.Query().Get("methods")
	methods := []string{}
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			methods = append(methods, m)
		}
	}
	return methods
}

func toItemAggregates(items []report.ItemAggregate) []itemAggregateResponse {
	resp := make([]itemAggregateResponse, len(items))
	for i, it := range items {
		resp[i] = itemAggregateResponse{
			Name:         it.Name,
			QuantitySold: it.QuantitySold,
			TotalSold:    it.TotalSold.StringFixed(2),
		}
	}
	return resp
}
