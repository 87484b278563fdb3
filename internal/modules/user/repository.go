package user

import (
	"context"
	"time"
)

// Repository defines data access for user accounts.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error

	// GetUserByID retrieves a user with addresses and payment methods.
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	UpdateProfile(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetResetToken(ctx context.Context, userID, token string) error
	RecordLogin(ctx context.Context, userID string, at time.Time) error

	AddAddress(ctx context.Context, userID string, addr *Address) error
	RemoveAddress(ctx context.Context, userID, addressID string) error

	// ClearDefaultAddresses unsets the default flag on the user's
	// addresses of the given type.
	ClearDefaultAddresses(ctx context.Context, userID, addrType string) error

	AddPaymentMethod(ctx context.Context, userID string, pm *PaymentMethod) error
	RemovePaymentMethod(ctx context.Context, userID, methodID string) error

	// ClearDefaultPaymentMethods unsets the default flag on all of the
	// user's payment methods.
	ClearDefaultPaymentMethods(ctx context.Context, userID string) error

	// AddLoyaltyPoints credits points, adds to lifetime spend, and re-derives
	// the tier from the new lifetime total.
	AddLoyaltyPoints(ctx context.Context, userID string, points int, amountSpent float64) error
}
