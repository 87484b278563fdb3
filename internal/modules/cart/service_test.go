package cart

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/modules/catalog"
	"github.com/georgemunganga/shopcart-backend/internal/pricing"
)

type fakeRepo struct {
	carts map[uuid.UUID]*Cart
}

func newFakeRepo() *fakeRepo { return &fakeRepo{carts: map[uuid.UUID]*Cart{}} }

func (f *fakeRepo) GetByOwner(ctx context.Context, owner Owner) (*Cart, error) {
	for _, c := range f.carts {
		if c.Owner == owner && c.ExpiresAt.After(time.Now()) {
			return c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepo) Create(ctx context.Context, c *Cart) error {
	f.carts[c.ID] = c
	return nil
}

func (f *fakeRepo) Save(ctx context.Context, c *Cart) error {
	if _, ok := f.carts[c.ID]; !ok {
		return sql.ErrNoRows
	}
	f.carts[c.ID] = c
	return nil
}

func (f *fakeRepo) SetOwner(ctx context.Context, cartID string, owner Owner) error {
	id, err := uuid.Parse(cartID)
	if err != nil {
		return err
	}
	f.carts[id].Owner = owner
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, cartID string) error {
	id, err := uuid.Parse(cartID)
	if err != nil {
		return err
	}
	delete(f.carts, id)
	return nil
}

type fakeCatalog struct {
	catalog.Service
	products map[string]*catalog.Product
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*catalog.ProductView, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.NotFound("product not found")
	}
	return catalog.NewProductView(p), nil
}

const productID = "9a8b7c6d-0000-0000-0000-000000000001"

func newService(stock int) (Service, *fakeRepo) {
	repo := newFakeRepo()
	cat := &fakeCatalog{products: map[string]*catalog.Product{
		productID: {
			ID:     uuid.MustParse(productID),
			Name:   "Ceramic Mug",
			Status: catalog.StatusActive,
			Variants: []catalog.Variant{
				{
					VariantID: "VAR-001",
					Name:      "White",
					SKU:       "MUG-WHT",
					Price:     12.50,
					Inventory: catalog.Inventory{Quantity: stock},
					IsActive:  true,
				},
			},
		},
	}}
	return NewService(repo, cat, pricing.Default()), repo
}

func TestGetCartCreatesLazily(t *testing.T) {
	svc, repo := newService(10)
	owner := UserOwner("u1")

	c, err := svc.GetCart(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, owner, c.Owner)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0.00, c.EstimatedTotal)
	assert.WithinDuration(t, time.Now().Add(TTL), c.ExpiresAt, time.Minute)
	assert.Len(t, repo.carts, 1)

	// Second lookup returns the same cart.
	again, err := svc.GetCart(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
}

func TestAddItemMergesLinesAndRecomputes(t *testing.T) {
	svc, _ := newService(10)
	owner := SessionOwner("sess-1")

	c, err := svc.AddItem(context.Background(), owner, AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 12.50, c.Items[0].Price)

	c, err = svc.AddItem(context.Background(), owner, AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 4, c.Items[0].Quantity)

	assert.Equal(t, 4, c.ItemsCount)
	assert.Equal(t, 50.00, c.Subtotal)
	assert.Equal(t, 4.00, c.Tax)
	assert.Equal(t, 0.00, c.Shipping) // at the free-shipping threshold
	assert.Equal(t, 54.00, c.EstimatedTotal)
}

func TestAddItemShippingBelowThreshold(t *testing.T) {
	svc, _ := newService(10)

	c, err := svc.AddItem(context.Background(), UserOwner("u1"), AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 25.00, c.Subtotal)
	assert.Equal(t, 2.00, c.Tax)
	assert.Equal(t, 9.99, c.Shipping)
	assert.Equal(t, 36.99, c.EstimatedTotal)
}

func TestAddItemInsufficientStock(t *testing.T) {
	svc, _ := newService(3)
	owner := UserOwner("u1")

	_, err := svc.AddItem(context.Background(), owner, AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.NoError(t, err)

	// 2 already in the cart; 2 more would exceed the 3 in stock.
	_, err = svc.AddItem(context.Background(), owner, AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
}

func TestUpdateItemZeroRemoves(t *testing.T) {
	svc, _ := newService(10)
	owner := UserOwner("u1")

	_, err := svc.AddItem(context.Background(), owner, AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.NoError(t, err)

	c, err := svc.UpdateItem(context.Background(), owner, UpdateItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0.00, c.EstimatedTotal)

	_, err = svc.UpdateItem(context.Background(), owner, UpdateItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 1,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestClearKeepsCart(t *testing.T) {
	svc, repo := newService(10)
	owner := UserOwner("u1")

	_, err := svc.AddItem(context.Background(), owner, AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.NoError(t, err)

	c, err := svc.Clear(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.ItemsCount)
	assert.Len(t, repo.carts, 1)
}

func TestMergeAbsorbsSessionCart(t *testing.T) {
	svc, repo := newService(10)

	_, err := svc.AddItem(context.Background(), SessionOwner("sess-1"), AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 1,
	})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), UserOwner("u1"), AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.NoError(t, err)

	merged, err := svc.Merge(context.Background(), "u1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, UserOwner("u1"), merged.Owner)
	require.Len(t, merged.Items, 1)
	assert.Equal(t, 3, merged.Items[0].Quantity)

	// The session cart is gone.
	assert.Len(t, repo.carts, 1)
	_, err = repo.GetByOwner(context.Background(), SessionOwner("sess-1"))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMergeReassignsWhenUserHasNoCart(t *testing.T) {
	svc, _ := newService(10)

	_, err := svc.AddItem(context.Background(), SessionOwner("sess-1"), AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 2,
	})
	require.NoError(t, err)

	merged, err := svc.Merge(context.Background(), "u1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, UserOwner("u1"), merged.Owner)
	assert.Equal(t, 2, merged.ItemsCount)
}

func TestCount(t *testing.T) {
	svc, _ := newService(10)
	owner := UserOwner("u1")

	n, err := svc.Count(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = svc.AddItem(context.Background(), owner, AddItemRequest{
		ProductID: productID, VariantID: "VAR-001", Quantity: 3,
	})
	require.NoError(t, err)

	n, err = svc.Count(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
