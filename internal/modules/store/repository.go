package store

import "context"

// Repository defines store persistence.
type Repository interface {
	CreateStore(ctx context.Context, s *Store) error
	GetStoreByID(ctx context.Context, id string) (*Store, error)
	// GetStoreByStoreID looks a store up by its human-readable code.
	GetStoreByStoreID(ctx context.Context, storeID string) (*Store, error)
	ListStores(ctx context.Context, q ListQuery) ([]*Store, error)

	// Nearby returns active stores within the radius ordered by distance,
	// with the distance in meters alongside each store. Stock, services and
	// open-now filtering are applied by the service layer where needed.
	Nearby(ctx context.Context, q SearchQuery) ([]*Store, []float64, error)

	// SetInventory upserts one store inventory line.
	SetInventory(ctx context.Context, storeUUID string, item InventoryItem) error
}
