package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

// Handler exposes user profile HTTP endpoints.
type Handler struct {
	service Service
	auth    *security.Manager
}

func NewHandler(service Service, auth *security.Manager) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(h.auth.RequireUser)
		r.Get("/profile", h.getProfile)                         // GET    /api/v1/users/profile
		r.Put("/profile", h.updateProfile)                      // PUT    /api/v1/users/profile
		r.Post("/addresses", h.addAddress)                      // POST   /api/v1/users/addresses
		r.Delete("/addresses/{address_id}", h.removeAddress)    // DELETE /api/v1/users/addresses/{address_id}
		r.Post("/payment-methods", h.addPaymentMethod)          // POST   /api/v1/users/payment-methods
		r.Delete("/payment-methods/{method_id}", h.removePaymentMethod)
	})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUser(r.Context(), security.UserID(r.Context()))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.service.UpdateProfile(r.Context(), security.UserID(r.Context()), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	var req AddAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.service.AddAddress(r.Context(), security.UserID(r.Context()), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, u)
}

func (h *Handler) removeAddress(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.RemoveAddress(r.Context(), security.UserID(r.Context()), chi.URLParam(r, "address_id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func (h *Handler) addPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req AddPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.service.AddPaymentMethod(r.Context(), security.UserID(r.Context()), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, u)
}

func (h *Handler) removePaymentMethod(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.RemovePaymentMethod(r.Context(), security.UserID(r.Context()), chi.URLParam(r, "method_id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondErr(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), apperr.Payload(err))
}
