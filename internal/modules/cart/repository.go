package cart

import "context"

// Repository defines cart persistence. Implementations must treat a save
// as a single atomic write of the whole cart row.
type Repository interface {
	// GetByOwner returns the owner's live cart, or sql.ErrNoRows when the
	// owner has none (expired carts count as none).
	GetByOwner(ctx context.Context, owner Owner) (*Cart, error)

	Create(ctx context.Context, c *Cart) error

	// Save overwrites the cart's items, totals and expiry in one statement.
	Save(ctx context.Context, c *Cart) error

	// SetOwner reassigns the cart, used when a session cart becomes a
	// user cart at login.
	SetOwner(ctx context.Context, cartID string, owner Owner) error

	Delete(ctx context.Context, cartID string) error
}
