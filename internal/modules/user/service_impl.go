package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
)

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		u.Profile.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.Profile.LastName = *req.LastName
	}
	if req.Phone != nil {
		u.Profile.Phone = *req.Phone
	}
	if req.Preferences != nil {
		u.Preferences = *req.Preferences
	}

	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) AddAddress(ctx context.Context, id string, req AddAddressRequest) (*User, error) {
	addrType := strings.ToLower(req.Type)
	if addrType != "shipping" && addrType != "billing" {
		return nil, apperr.Validation("address type must be shipping or billing")
	}
	if req.RecipientName == "" || req.Street == "" || req.City == "" {
		return nil, apperr.Validation("recipient_name, street and city are required")
	}
	if len(req.Country) != 2 {
		return nil, apperr.Validation("country must be an ISO 3166-1 alpha-2 code")
	}

	addr := &Address{
		AddressID:     fmt.Sprintf("addr_%s", uuid.New().String()[:8]),
		Type:          addrType,
		IsDefault:     req.IsDefault,
		RecipientName: req.RecipientName,
		Street:        req.Street,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       strings.ToUpper(req.Country),
	}
	if len(req.Coordinates) == 2 {
		lon, lat := req.Coordinates[0], req.Coordinates[1]
		addr.Longitude, addr.Latitude = &lon, &lat
	}

	// A new default displaces any existing default of the same type.
	if addr.IsDefault {
		if err := s.repo.ClearDefaultAddresses(ctx, id, addrType); err != nil {
			return nil, err
		}
	}
	if err := s.repo.AddAddress(ctx, id, addr); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) RemoveAddress(ctx context.Context, id, addressID string) (*User, error) {
	if err := s.repo.RemoveAddress(ctx, id, addressID); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) AddPaymentMethod(ctx context.Context, id string, req AddPaymentMethodRequest) (*User, error) {
	if len(req.LastFour) != 4 {
		return nil, apperr.Validation("last_four must be exactly 4 digits")
	}
	pm := &PaymentMethod{
		MethodID:  fmt.Sprintf("pm_%s", uuid.New().String()[:8]),
		Type:      req.Type,
		IsDefault: req.IsDefault,
		LastFour:  req.LastFour,
		Brand:     req.Brand,
		ExpiresAt: req.ExpiresAt,
	}
	if pm.IsDefault {
		if err := s.repo.ClearDefaultPaymentMethods(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := s.repo.AddPaymentMethod(ctx, id, pm); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) RemovePaymentMethod(ctx context.Context, id, methodID string) (*User, error) {
	if err := s.repo.RemovePaymentMethod(ctx, id, methodID); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}
