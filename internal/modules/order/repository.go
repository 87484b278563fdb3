package order

import "context"

// Repository defines order persistence.
type Repository interface {
	// CreateOrder persists the order, its items, its initial timeline entry,
	// and the matching stock reservations in one transaction. Each item's
	// variant is decremented conditionally; if any variant lacks stock the
	// whole transaction rolls back and an InsufficientStockError carrying
	// the available quantity is returned.
	CreateOrder(ctx context.Context, o *Order) error

	GetOrderByID(ctx context.Context, id string) (*Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ListOrdersByUser returns one page of the user's orders, newest first,
	// plus the total match count.
	ListOrdersByUser(ctx context.Context, userID string, q ListQuery) ([]*Order, int, error)

	// CancelOrder flips the order to cancelled, restores each item's variant
	// stock, and appends the timeline entry, all in one transaction.
	CancelOrder(ctx context.Context, o *Order, entry TimelineEntry) error
}
