package auth

import (
	"context"

	"github.com/georgemunganga/shopcart-backend/internal/modules/user"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, userID string) (*TokenResponse, error)
	CurrentUser(ctx context.Context, userID string) (*user.User, error)

	// RequestPasswordReset issues a reset token. It never reveals whether the
	// email exists; the returned token is empty for unknown accounts.
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest asks for a reset token to be issued.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest completes a password reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// TokenResponse carries an issued bearer token and the authenticated user.
type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int        `json:"expires_in"` // seconds
	User        *user.User `json:"user"`
}
