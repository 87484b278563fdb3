package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

// Handler exposes authentication HTTP endpoints.
type Handler struct {
	service Service
	auth    *security.Manager
	log     *slog.Logger
}

func NewHandler(service Service, auth *security.Manager, log *slog.Logger) *Handler {
	return &Handler{service: service, auth: auth, log: log}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.register)                        // POST /api/v1/auth/register
		r.Post("/login", h.login)                              // POST /api/v1/auth/login
		r.Post("/password-reset", h.requestPasswordReset)      // POST /api/v1/auth/password-reset
		r.Post("/password-reset/confirm", h.confirmPasswordReset)
		r.With(h.auth.RequireUser).Post("/refresh", h.refresh) // POST /api/v1/auth/refresh
		r.With(h.auth.RequireUser).Get("/me", h.me)            // GET  /api/v1/auth/me
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, resp)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	token, err := h.service.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		respondErr(w, err)
		return
	}
	// Email delivery is out of scope; the token is logged for operators.
	if token != "" {
		h.log.Info("password reset token issued", "email", req.Email)
	}
	respond(w, http.StatusOK, map[string]string{
		"message": "If email exists, reset instructions will be sent",
	})
}

func (h *Handler) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, apperr.Validation("invalid request body"))
		return
	}
	if err := h.service.ConfirmPasswordReset(r.Context(), req); err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Refresh(r.Context(), security.UserID(r.Context()))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.CurrentUser(r.Context(), security.UserID(r.Context()))
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
