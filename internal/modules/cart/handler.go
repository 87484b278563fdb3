package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

// Handler exposes cart HTTP endpoints. Endpoints work for both logged-in
// users (bearer token) and anonymous sessions (X-Session-ID header).
type Handler struct {
	service Service
	auth    *security.Manager
}

func NewHandler(service Service, auth *security.Manager) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(h.auth.OptionalUser)
		r.Get("/", h.getCart)            // GET    /api/v1/cart
		r.Get("/count", h.count)         // GET    /api/v1/cart/count
		r.Post("/items", h.addItem)      // POST   /api/v1/cart/items
		r.Patch("/items", h.updateItem)  // PATCH  /api/v1/cart/items
		r.Delete("/items", h.removeItem) // DELETE /api/v1/cart/items
		r.Delete("/", h.clear)           // DELETE /api/v1/cart
		r.With(h.auth.RequireUser).Post("/merge", h.merge) // POST /api/v1/cart/merge
	})
}

// owner resolves the cart owner from the request: a valid bearer token wins,
// an X-Session-ID header is the anonymous fallback.
func owner(r *http.Request) (Owner, error) {
	if userID := security.UserID(r.Context()); userID != "" {
		return UserOwner(userID), nil
	}
	if sessionID := security.SessionID(r); sessionID != "" {
		return SessionOwner(sessionID), nil
	}
	return Owner{}, apperr.Validation("authentication or X-Session-ID header required")
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	o, err := owner(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	c, err := h.service.GetCart(r.Context(), o)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	o, err := owner(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	n, err := h.service.Count(r.Context(), o)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	o, err := owner(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	c, err := h.service.AddItem(r.Context(), o, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	o, err := owner(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	c, err := h.service.UpdateItem(r.Context(), o, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	o, err := owner(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var req RemoveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	c, err := h.service.RemoveItem(r.Context(), o, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	o, err := owner(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	c, err := h.service.Clear(r.Context(), o)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = security.SessionID(r)
	}
	c, err := h.service.Merge(r.Context(), security.UserID(r.Context()), req.SessionID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondErr(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), apperr.Payload(err))
}
