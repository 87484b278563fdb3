package store

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

// Handler exposes store locator HTTP endpoints.
type Handler struct {
	service Service
	auth    *security.Manager
}

func NewHandler(service Service, auth *security.Manager) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Get("/", h.list)                                // GET   /api/v1/stores
		r.Get("/search", h.search)                        // GET   /api/v1/stores/search
		r.Get("/nearby/{product_id}", h.nearbyWithProduct) // GET  /api/v1/stores/nearby/{product_id}
		r.Get("/{id}", h.getStore)                        // GET   /api/v1/stores/{id}
		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireUser)
			r.Post("/", h.create)                         // POST  /api/v1/stores
			r.Patch("/{id}/inventory", h.setInventory)    // PATCH /api/v1/stores/{id}/inventory
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	st, err := h.service.CreateStore(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, st)
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, st)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := ListQuery{City: qs.Get("city"), State: qs.Get("state")}
	if v := qs.Get("active"); v != "" {
		active := v == "true"
		q.Active = &active
	}
	stores, err := h.service.ListStores(r.Context(), q)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"stores": stores})
}

func parseSearchQuery(r *http.Request) (SearchQuery, error) {
	qs := r.URL.Query()
	lat, latErr := strconv.ParseFloat(qs.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(qs.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		return SearchQuery{}, apperr.Validation("lat and lon are required")
	}
	q := SearchQuery{
		Latitude:  lat,
		Longitude: lon,
		ProductID: qs.Get("product_id"),
		VariantID: qs.Get("variant_id"),
		OpenNow:   qs.Get("open_now") == "true",
	}
	q.Radius, _ = strconv.ParseFloat(qs.Get("radius"), 64)
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))
	if v := qs.Get("services"); v != "" {
		q.Services = strings.Split(v, ",")
	}
	return q, nil
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	views, err := h.service.Search(r.Context(), q)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"stores": views})
}

func (h *Handler) nearbyWithProduct(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	views, err := h.service.NearbyWithProduct(r.Context(), chi.URLParam(r, "product_id"), q)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"stores": views})
}

func (h *Handler) setInventory(w http.ResponseWriter, r *http.Request) {
	var req SetInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	st, err := h.service.SetInventory(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, st)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondErr(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), apperr.Payload(err))
}
