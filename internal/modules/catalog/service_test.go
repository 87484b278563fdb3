package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	Repository
	products map[string]*Product

	// afterGet runs once after the next load, to interleave a write
	// between a caller's read and its update.
	afterGet func(*fakeRepo)
}

func (f *fakeRepo) GetProductByID(ctx context.Context, id string) (*Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	cp.Variants = append([]Variant(nil), p.Variants...)
	if f.afterGet != nil {
		hook := f.afterGet
		f.afterGet = nil
		hook(f)
	}
	return &cp, nil
}

// UpdateProduct follows the repository contract: product-level columns only,
// variant rows untouched.
func (f *fakeRepo) UpdateProduct(ctx context.Context, p *Product) error {
	stored, ok := f.products[p.ID.String()]
	if !ok {
		return sql.ErrNoRows
	}
	variants := stored.Variants
	cp := *p
	cp.Variants = variants
	*stored = cp
	return nil
}

func TestUpdateProductKeepsLiveInventory(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{products: map[string]*Product{
		id.String(): {
			ID:            id,
			Name:          "Trail Backpack",
			Status:        StatusActive,
			RatingSummary: NewRatingSummary(),
			Variants: []Variant{{
				VariantID: "VAR-001",
				SKU:       "PACK-40-GRN",
				Price:     30,
				Inventory: Inventory{Quantity: 5},
				IsActive:  true,
			}},
		},
	}}
	svc := NewService(repo)

	// A checkout reserves two units after the edit has loaded the product
	// but before it writes.
	repo.afterGet = func(f *fakeRepo) {
		f.products[id.String()].Variants[0].Inventory = Inventory{Quantity: 3, Reserved: 2}
	}

	name := "Trail Backpack 40L"
	updated, err := svc.UpdateProduct(context.Background(), id.String(), UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Trail Backpack 40L", updated.Name)

	stored := repo.products[id.String()]
	assert.Equal(t, "Trail Backpack 40L", stored.Name)
	assert.Equal(t, 3, stored.Variants[0].Inventory.Quantity)
	assert.Equal(t, 2, stored.Variants[0].Inventory.Reserved)
}
