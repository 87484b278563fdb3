package security

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the authenticated caller's id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// SessionID returns the anonymous session identifier, if the client sent one.
func SessionID(r *http.Request) string {
	return r.Header.Get("X-Session-ID")
}

func (m *Manager) bearerUserID(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperr.Unauthorized("missing bearer token")
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", apperr.Unauthorized("malformed authorization header")
	}
	return m.VerifyAccessToken(token)
}

// RequireUser rejects requests without a valid bearer token and stores the
// caller's user id on the request context.
func (m *Manager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.bearerUserID(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(apperr.Payload(err))
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalUser stores the caller's user id when a valid bearer token is
// present but lets anonymous requests through. Used by cart endpoints, which
// also accept an X-Session-ID header.
func (m *Manager) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, err := m.bearerUserID(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
		}
		next.ServeHTTP(w, r)
	})
}
