package order

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/modules/cart"
	"github.com/georgemunganga/shopcart-backend/internal/modules/catalog"
	"github.com/georgemunganga/shopcart-backend/internal/modules/user"
	"github.com/georgemunganga/shopcart-backend/internal/pricing"
)

// ── fakes ────────────────────────────────────────────────────────────────────

type stockKey struct{ productID, variantID string }

type stockState struct{ quantity, reserved int }

// fakeRepo keeps orders and variant stock in memory. Stock reservation is
// all-or-nothing under one lock, mirroring the transactional repository.
type fakeRepo struct {
	mu     sync.Mutex
	stock  map[stockKey]*stockState
	orders map[string]*Order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stock:  map[stockKey]*stockState{},
		orders: map[string]*Order{},
	}
}

func (f *fakeRepo) CreateOrder(ctx context.Context, o *Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range o.Items {
		st, ok := f.stock[stockKey{item.ProductID, item.VariantID}]
		if !ok {
			return apperr.NotFound("Variant not found")
		}
		if st.quantity < item.Quantity {
			return &apperr.InsufficientStockError{
				ProductName: item.ProductName,
				VariantID:   item.VariantID,
				Available:   st.quantity,
			}
		}
	}
	for _, item := range o.Items {
		st := f.stock[stockKey{item.ProductID, item.VariantID}]
		st.quantity -= item.Quantity
		st.reserved += item.Quantity
	}
	f.orders[o.ID.String()] = o
	return nil
}

func (f *fakeRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}

func (f *fakeRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepo) ListOrdersByUser(ctx context.Context, userID string, q ListQuery) ([]*Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Order
	for _, o := range f.orders {
		if o.UserID == userID && (q.Status == "" || string(o.Status) == q.Status) {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) CancelOrder(ctx context.Context, o *Order, entry TimelineEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[o.ID.String()]
	if !ok {
		return sql.ErrNoRows
	}
	if stored.Status != StatusPending {
		return apperr.InvalidTransition("Order can no longer be cancelled")
	}
	for _, item := range stored.Items {
		st := f.stock[stockKey{item.ProductID, item.VariantID}]
		st.quantity += item.Quantity
		st.reserved -= item.Quantity
	}
	stored.Status = StatusCancelled
	stored.Timeline = append(stored.Timeline, entry)
	return nil
}

type fakeUsers struct {
	user.Repository
	mu      sync.Mutex
	users   map[string]*user.User
	points  int
	spent   float64
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) AddLoyaltyPoints(ctx context.Context, userID string, points int, amountSpent float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points += points
	f.spent += amountSpent
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

type fakeCarts struct {
	cart.Service
	mu      sync.Mutex
	cleared []cart.Owner
}

func (f *fakeCarts) Clear(ctx context.Context, o cart.Owner) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, o)
	return &cart.Cart{Owner: o}, nil
}

// ── fixtures ─────────────────────────────────────────────────────────────────

const testUserID = "3f1c9a4e-0000-0000-0000-000000000001"

func testUser() *user.User {
	return &user.User{
		ID:     uuid.MustParse(testUserID),
		Email:  "jane@example.com",
		Status: "active",
		Addresses: []user.Address{
			{AddressID: "addr_1", Type: "shipping", Street: "1 Main St", City: "Springfield", Country: "US", IsDefault: true},
			{AddressID: "addr_2", Type: "billing", Street: "2 Oak Ave", City: "Springfield", Country: "US"},
		},
		PaymentMethods: []user.PaymentMethod{
			{MethodID: "pm_1", Type: "credit_card", LastFour: "4242", Brand: "visa"},
		},
	}
}

func testProduct(id string, price float64, stock int) *catalog.Product {
	return &catalog.Product{
		ID:     uuid.MustParse(id),
		Name:   "Trail Backpack",
		Status: catalog.StatusActive,
		Variants: []catalog.Variant{
			{
				VariantID: "VAR-001",
				Name:      "40L Green",
				SKU:       "PACK-40-GRN",
				Price:     price,
				Inventory: catalog.Inventory{Quantity: stock},
				IsActive:  true,
			},
		},
	}
}

const productID = "7d2e8b1c-0000-0000-0000-00000000000a"

type fixture struct {
	svc     Service
	repo    *fakeRepo
	users   *fakeUsers
	carts   *fakeCarts
	catalog *fakeCatalog
}

func newFixture(price float64, stock int) *fixture {
	repo := newFakeRepo()
	repo.stock[stockKey{productID, "VAR-001"}] = &stockState{quantity: stock}
	users := &fakeUsers{users: map[string]*user.User{testUserID: testUser()}}
	cat := &fakeCatalog{products: map[string]*catalog.Product{productID: testProduct(productID, price, stock)}}
	carts := &fakeCarts{}
	svc := NewService(repo, users, cat, carts, pricing.Default(), slog.Default())
	return &fixture{svc: svc, repo: repo, users: users, carts: carts, catalog: cat}
}

func createReq(qty int) CreateOrderRequest {
	return CreateOrderRequest{
		Items:             []LineRequest{{ProductID: productID, VariantID: "VAR-001", Quantity: qty}},
		ShippingAddressID: "addr_1",
		PaymentMethodID:   "pm_1",
	}
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestCreateOrderTotalsAboveFreeShipping(t *testing.T) {
	f := newFixture(30.00, 5)

	o, err := f.svc.Create(context.Background(), testUserID, createReq(2))
	require.NoError(t, err)

	assert.Equal(t, 60.00, o.Summary.Subtotal)
	assert.Equal(t, 4.80, o.Summary.Tax)
	assert.Equal(t, 0.00, o.Summary.Shipping)
	assert.Equal(t, 64.80, o.Summary.Total)

	st := f.repo.stock[stockKey{productID, "VAR-001"}]
	assert.Equal(t, 3, st.quantity)
	assert.Equal(t, 2, st.reserved)

	assert.Equal(t, 64, f.users.points)
	assert.Equal(t, 64.80, f.users.spent)
	assert.Len(t, f.carts.cleared, 1)
	assert.Equal(t, cart.UserOwner(testUserID), f.carts.cleared[0])
}

func TestCreateOrderTotalsBelowFreeShipping(t *testing.T) {
	f := newFixture(20.00, 5)

	o, err := f.svc.Create(context.Background(), testUserID, createReq(2))
	require.NoError(t, err)

	assert.Equal(t, 40.00, o.Summary.Subtotal)
	assert.Equal(t, 3.20, o.Summary.Tax)
	assert.Equal(t, 9.99, o.Summary.Shipping)
	assert.Equal(t, 53.19, o.Summary.Total)
}

func TestCreateOrderSnapshotsItems(t *testing.T) {
	f := newFixture(30.00, 5)

	o, err := f.svc.Create(context.Background(), testUserID, createReq(2))
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.Equal(t, "Trail Backpack - 40L Green", item.ProductName)
	assert.Equal(t, "PACK-40-GRN", item.SKU)
	assert.Equal(t, 30.00, item.UnitPrice)
	assert.Equal(t, 60.00, item.TotalPrice)

	assert.Equal(t, StatusPending, o.Status)
	require.Len(t, o.Timeline, 1)
	assert.Equal(t, StatusPending, o.Timeline[0].Status)
	assert.Equal(t, "Order placed", o.Timeline[0].Note)

	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, o.OrderNumber)
	assert.Regexp(t, `^txn_[0-9a-f]{16}$`, o.Payment.TransactionID)
	assert.Equal(t, "pending", o.Payment.Status)
	assert.Equal(t, o.Summary.Total, o.Payment.Amount)
}

func TestCreateOrderBillingFallsBackToShipping(t *testing.T) {
	f := newFixture(30.00, 5)

	req := createReq(1)
	req.BillingAddressID = "addr_does_not_exist"
	o, err := f.svc.Create(context.Background(), testUserID, req)
	require.NoError(t, err)
	assert.Equal(t, o.ShippingAddress, o.BillingAddress)

	req = createReq(1)
	req.BillingAddressID = "addr_2"
	o, err = f.svc.Create(context.Background(), testUserID, req)
	require.NoError(t, err)
	assert.Equal(t, "2 Oak Ave", o.BillingAddress.Street)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFixture(30.00, 1)

	_, err := f.svc.Create(context.Background(), testUserID, createReq(2))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)

	// Nothing mutated.
	st := f.repo.stock[stockKey{productID, "VAR-001"}]
	assert.Equal(t, 1, st.quantity)
	assert.Equal(t, 0, st.reserved)
	assert.Empty(t, f.repo.orders)
	assert.Zero(t, f.users.points)
	assert.Empty(t, f.carts.cleared)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(30.00, 5)

	_, err := f.svc.Create(context.Background(), testUserID, CreateOrderRequest{
		ShippingAddressID: "addr_1", PaymentMethodID: "pm_1",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	req := createReq(1)
	req.ShippingAddressID = "addr_unknown"
	_, err = f.svc.Create(context.Background(), testUserID, req)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	req = createReq(1)
	req.PaymentMethodID = "pm_unknown"
	_, err = f.svc.Create(context.Background(), testUserID, req)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(30.00, 5)

	o, err := f.svc.Create(context.Background(), testUserID, createReq(2))
	require.NoError(t, err)

	cancelled, err := f.svc.UpdateStatus(context.Background(), o.ID.String(), testUserID,
		UpdateStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, StatusCancelled, cancelled.Timeline[len(cancelled.Timeline)-1].Status)

	st := f.repo.stock[stockKey{productID, "VAR-001"}]
	assert.Equal(t, 5, st.quantity)
	assert.Equal(t, 0, st.reserved)

	// Cancelling twice is an invalid transition.
	_, err = f.svc.UpdateStatus(context.Background(), o.ID.String(), testUserID,
		UpdateStatusRequest{Status: "cancelled"})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestCancelOrderByNonOwner(t *testing.T) {
	f := newFixture(30.00, 5)

	o, err := f.svc.Create(context.Background(), testUserID, createReq(2))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID.String(), "someone-else",
		UpdateStatusRequest{Status: "cancelled"})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	// Stock stays reserved.
	st := f.repo.stock[stockKey{productID, "VAR-001"}]
	assert.Equal(t, 3, st.quantity)
	assert.Equal(t, 2, st.reserved)
}

func TestUpdateStatusOnlyAllowsCancellation(t *testing.T) {
	f := newFixture(30.00, 5)

	o, err := f.svc.Create(context.Background(), testUserID, createReq(1))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID.String(), testUserID,
		UpdateStatusRequest{Status: "shipped"})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestGetOrderOwnership(t *testing.T) {
	f := newFixture(30.00, 5)

	o, err := f.svc.Create(context.Background(), testUserID, createReq(1))
	require.NoError(t, err)

	got, err := f.svc.GetOrder(context.Background(), o.ID.String(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)

	_, err = f.svc.GetOrder(context.Background(), o.ID.String(), "someone-else")
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	_, err = f.svc.GetOrderByNumber(context.Background(), o.OrderNumber, "someone-else")
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	_, err = f.svc.GetOrder(context.Background(), uuid.NewString(), testUserID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// TestConcurrentOrdersLastUnit races two orders for the final unit of
// stock; exactly one may win.
func TestConcurrentOrdersLastUnit(t *testing.T) {
	f := newFixture(30.00, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), testUserID, createReq(1))
		}(i)
	}
	wg.Wait()

	successes, stockFailures := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperr.KindOf(err) == apperr.KindInsufficientStock:
			stockFailures++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockFailures)

	st := f.repo.stock[stockKey{productID, "VAR-001"}]
	assert.Equal(t, 0, st.quantity)
	assert.Equal(t, 1, st.reserved)
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	f := newFixture(30.00, 10)

	first, err := f.svc.Create(context.Background(), testUserID, createReq(1))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), testUserID, createReq(1))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), first.ID.String(), testUserID,
		UpdateStatusRequest{Status: "cancelled"})
	require.NoError(t, err)

	resp, err := f.svc.ListOrders(context.Background(), testUserID, ListQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	resp, err = f.svc.ListOrders(context.Background(), testUserID, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusPending, false},
		{StatusDelivered, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
