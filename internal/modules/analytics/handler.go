package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

const (
	defaultLowStockThreshold = 10
	defaultTopLimit          = 10
	defaultTrendMonths       = 12
)

// Handler exposes the reporting endpoints. All of them require a bearer
// token; there is no per-report authorization beyond that.
type Handler struct {
	repo Repository
	auth *security.Manager
}

func NewHandler(repo Repository, auth *security.Manager) *Handler {
	return &Handler{repo: repo, auth: auth}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(h.auth.RequireUser)
		r.Get("/sales-metrics", h.salesMetrics)
		r.Get("/top-products", h.topProducts)
		r.Get("/revenue-by-category", h.revenueByCategory)
		r.Get("/customer-lifetime-value", h.customerLifetimeValue)
		r.Get("/revenue-trends", h.revenueTrends)
		r.Get("/inventory-alerts", h.inventoryAlerts)
		r.Get("/dashboard-summary", h.dashboardSummary)
	})
}

// dateRange parses optional RFC 3339 date bounds from the query string.
func dateRange(r *http.Request) DateRange {
	var d DateRange
	if v := r.URL.Query().Get("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			d.Start = t
		}
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			d.End = t.AddDate(0, 0, 1) // inclusive end date
		}
	}
	return d
}

func (h *Handler) salesMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.repo.SalesMetrics(r.Context(), dateRange(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultTopLimit
	}
	products, err := h.repo.TopProducts(r.Context(), dateRange(r), limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *Handler) revenueByCategory(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.RevenueByCategory(r.Context(), dateRange(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func (h *Handler) customerLifetimeValue(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	minOrders, _ := strconv.Atoi(qs.Get("min_orders"))
	if minOrders < 1 {
		minOrders = 1
	}
	limit, _ := strconv.Atoi(qs.Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	customers, err := h.repo.CustomerLifetimeValue(r.Context(), minOrders, limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"customers": customers})
}

func (h *Handler) revenueTrends(w http.ResponseWriter, r *http.Request) {
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	if months < 1 || months > 60 {
		months = defaultTrendMonths
	}
	trends, err := h.repo.RevenueTrends(r.Context(), months)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"trends": trends})
}

func (h *Handler) inventoryAlerts(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.Atoi(r.URL.Query().Get("threshold"))
	if threshold < 1 {
		threshold = defaultLowStockThreshold
	}
	alerts, err := h.repo.InventoryAlerts(r.Context(), threshold)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

func (h *Handler) dashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.repo.DashboardSummary(r.Context(), defaultLowStockThreshold)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondErr(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), apperr.Payload(err))
}
