package catalog

import "context"

// Repository defines data access for products and categories.
type Repository interface {
	// CreateProduct persists a product and its variants atomically.
	CreateProduct(ctx context.Context, p *Product) error
	GetProductByID(ctx context.Context, id string) (*Product, error)

	// ExistingVariantSKUs returns which of the given SKUs are already taken.
	ExistingVariantSKUs(ctx context.Context, skus []string) ([]string, error)

	// SearchProducts returns one page of matches and the total match count.
	SearchProducts(ctx context.Context, q SearchQuery) ([]*Product, int, error)

	// UpdateProduct overwrites the product-level columns; variant rows and
	// their stock counters are never written by it.
	UpdateProduct(ctx context.Context, p *Product) error
	SetProductStatus(ctx context.Context, id, status string) error
	SetVariantQuantity(ctx context.Context, productID, variantID string, quantity int) error

	// UpdateRatingSummary overwrites the product's review roll-up.
	UpdateRatingSummary(ctx context.Context, productID string, rs RatingSummary) error

	// Recommendations returns active, well-rated products sharing a category.
	Recommendations(ctx context.Context, p *Product, limit int) ([]*Product, error)

	CreateCategory(ctx context.Context, c *Category) error
	GetCategoryByID(ctx context.Context, id string) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	ListCategories(ctx context.Context, parentID string, level *int) ([]*Category, error)
	AddCategoryChild(ctx context.Context, parentID, childID string) error
}
