package user

import "context"

// Service defines the interface for user-related business logic.
type Service interface {
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error)

	AddAddress(ctx context.Context, id string, req AddAddressRequest) (*User, error)
	RemoveAddress(ctx context.Context, id, addressID string) (*User, error)

	AddPaymentMethod(ctx context.Context, id string, req AddPaymentMethodRequest) (*User, error)
	RemovePaymentMethod(ctx context.Context, id, methodID string) (*User, error)
}
