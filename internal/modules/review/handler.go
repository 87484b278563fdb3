package review

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

// Handler exposes review HTTP endpoints.
type Handler struct {
	service Service
	auth    *security.Manager
}

func NewHandler(service Service, auth *security.Manager) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/", h.list)                              // GET  /api/v1/reviews
		r.Get("/{id}", h.getReview)                     // GET  /api/v1/reviews/{id}
		r.Get("/stats/{product_id}", h.stats)           // GET  /api/v1/reviews/stats/{product_id}
		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireUser)
			r.Post("/", h.create)                       // POST /api/v1/reviews
			r.Put("/{id}", h.update)                    // PUT  /api/v1/reviews/{id}
			r.Post("/{id}/vote", h.vote)                // POST /api/v1/reviews/{id}/vote
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	v, err := h.service.CreateReview(r.Context(), security.UserID(r.Context()), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, v)
}

func (h *Handler) getReview(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := ListQuery{
		ProductID:    qs.Get("product_id"),
		UserID:       qs.Get("user_id"),
		VerifiedOnly: qs.Get("verified_only") == "true",
		Status:       qs.Get("status"),
		SortBy:       qs.Get("sort_by"),
	}
	if v := qs.Get("rating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Rating = &n
		}
	}
	q.Page, _ = strconv.Atoi(qs.Get("page"))
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))

	resp, err := h.service.ListReviews(r.Context(), q)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	v, err := h.service.UpdateReview(r.Context(), chi.URLParam(r, "id"), security.UserID(r.Context()), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	v, err := h.service.Vote(r.Context(), chi.URLParam(r, "id"), security.UserID(r.Context()), req.Helpful)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.ProductStats(r.Context(), chi.URLParam(r, "product_id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, s)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondErr(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), apperr.Payload(err))
}
