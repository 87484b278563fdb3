package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

// Handler exposes order HTTP endpoints. Every route requires a bearer token.
type Handler struct {
	service Service
	auth    *security.Manager
}

func NewHandler(service Service, auth *security.Manager) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(h.auth.RequireUser)
		r.Post("/", h.create)                         // POST  /api/v1/orders
		r.Get("/", h.list)                            // GET   /api/v1/orders?status=&page=&limit=
		r.Get("/{id}", h.getOrder)                    // GET   /api/v1/orders/{id}
		r.Patch("/{id}/status", h.updateStatus)       // PATCH /api/v1/orders/{id}/status
		r.Get("/number/{order_number}", h.getByNumber) // GET  /api/v1/orders/number/{order_number}
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	o, err := h.service.Create(r.Context(), security.UserID(r.Context()), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := ListQuery{Status: qs.Get("status")}
	q.Page, _ = strconv.Atoi(qs.Get("page"))
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))

	resp, err := h.service.ListOrders(r.Context(), security.UserID(r.Context()), q)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"), security.UserID(r.Context()))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) getByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrderByNumber(r.Context(), chi.URLParam(r, "order_number"), security.UserID(r.Context()))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), security.UserID(r.Context()), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondErr(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), apperr.Payload(err))
}
