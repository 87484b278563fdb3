package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/modules/user"
	"github.com/georgemunganga/shopcart-backend/internal/security"
)

type service struct {
	userRepo user.Repository
	tokens   *security.Manager
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository, tokens *security.Manager) Service {
	return &service{userRepo: userRepo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if req.FirstName == "" || req.LastName == "" {
		return nil, apperr.Validation("first_name and last_name are required")
	}
	if !security.ValidatePasswordStrength(req.Password) {
		return nil, apperr.Validation("Password does not meet strength requirements")
	}

	if existing, err := s.userRepo.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperr.Conflict("Email already registered")
	} else if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Profile: user.Profile{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		},
		Preferences: user.DefaultPreferences(),
		Loyalty:     user.Loyalty{Tier: user.TierBronze},
		Status:      "active",
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.tokenResponse(ctx, u.ID.String())
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if !security.VerifyPassword(req.Password, u.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if u.Status != "active" {
		return nil, apperr.Unauthorized("Account is not active")
	}

	if err := s.userRepo.RecordLogin(ctx, u.ID.String(), time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.tokenResponse(ctx, u.ID.String())
}

func (s *service) Refresh(ctx context.Context, userID string) (*TokenResponse, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Status != "active" {
		return nil, apperr.Unauthorized("Account is not active")
	}
	return s.tokenResponse(ctx, userID)
}

func (s *service) CurrentUser(ctx context.Context, userID string) (*user.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Unknown email: succeed without a token so existence is not revealed.
		return "", nil
	}
	token, err := s.tokens.CreateResetToken(u.Email)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.SetResetToken(ctx, u.ID.String(), token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	email, err := s.tokens.VerifyResetToken(req.Token)
	if err != nil {
		return apperr.Validation("Invalid or expired reset token")
	}
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil || u.ResetToken != req.Token {
		return apperr.Validation("Invalid or expired reset token")
	}
	if !security.ValidatePasswordStrength(req.NewPassword) {
		return apperr.Validation("Password does not meet strength requirements")
	}
	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, u.ID.String(), hash)
}

func (s *service) tokenResponse(ctx context.Context, userID string) (*TokenResponse, error) {
	token, err := s.tokens.CreateAccessToken(userID)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(security.AccessTokenTTL.Seconds()),
		User:        u,
	}, nil
}
