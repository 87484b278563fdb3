package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

// Handler exposes product and category HTTP endpoints.
type Handler struct {
	service Service
	auth    *security.Manager
}

func NewHandler(service Service, auth *security.Manager) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/search", h.search)                              // GET   /api/v1/products/search
		r.Get("/{id}", h.getProduct)                            // GET   /api/v1/products/{id}
		r.Get("/{id}/recommendations", h.recommendations)       // GET   /api/v1/products/{id}/recommendations
		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireUser)
			r.Post("/", h.createProduct)                        // POST  /api/v1/products
			r.Put("/{id}", h.updateProduct)                     // PUT   /api/v1/products/{id}
			r.Delete("/{id}", h.deleteProduct)                  // DELETE /api/v1/products/{id}
			r.Patch("/{id}/inventory", h.setVariantQuantity)    // PATCH /api/v1/products/{id}/inventory
		})
	})
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)                            // GET   /api/v1/categories
		r.Get("/{id}", h.getCategory)                           // GET   /api/v1/categories/{id}
		r.With(h.auth.RequireUser).Post("/", h.createCategory)  // POST  /api/v1/categories
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	p, err := h.service.CreateProduct(r.Context(), security.UserID(r.Context()), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

// search parses every filter from the query string; all are optional.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := SearchQuery{
		Q:        qs.Get("q"),
		Category: qs.Get("category"),
		Brand:    qs.Get("brand"),
		SortBy:   qs.Get("sort_by"),
		InStock:  qs.Get("in_stock") == "true",
	}
	if v := qs.Get("min_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.MinPrice = &f
		}
	}
	if v := qs.Get("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.MaxPrice = &f
		}
	}
	if v := qs.Get("min_rating"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.MinRating = &f
		}
	}
	if v := qs.Get("tags"); v != "" {
		q.Tags = strings.Split(v, ",")
	}
	q.Page, _ = strconv.Atoi(qs.Get("page"))
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))

	resp, err := h.service.Search(r.Context(), q)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (h *Handler) setVariantQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VariantID string `json:"variant_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	if req.VariantID == "" {
		respondErr(w, apperr.Validation("variant_id is required"))
		return
	}
	p, err := h.service.SetVariantQuantity(r.Context(), chi.URLParam(r, "id"), req.VariantID, req.Quantity)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	views, err := h.service.Recommendations(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"recommendations": views})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	c, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, c)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	var level *int
	if v := qs.Get("level"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			level = &n
		}
	}
	cats, err := h.service.ListCategories(r.Context(), qs.Get("parent_id"), level)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondErr(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), apperr.Payload(err))
}
