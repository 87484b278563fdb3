package order

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/modules/cart"
	"github.com/georgemunganga/shopcart-backend/internal/modules/catalog"
	"github.com/georgemunganga/shopcart-backend/internal/modules/user"
	"github.com/georgemunganga/shopcart-backend/internal/pricing"
)

// Service defines the order management business logic.
type Service interface {
	// Create validates the requested lines against live catalog state,
	// snapshots them, computes totals, and persists the order together with
	// its stock reservations atomically.
	Create(ctx context.Context, userID string, req CreateOrderRequest) (*Order, error)

	// GetOrder retrieves an order by UUID; callers other than the owner
	// get a permission error.
	GetOrder(ctx context.Context, id, requestingUserID string) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable number.
	GetOrderByNumber(ctx context.Context, orderNumber, requestingUserID string) (*Order, error)

	// ListOrders returns the user's orders, newest first.
	ListOrders(ctx context.Context, userID string, q ListQuery) (*ListResponse, error)

	// UpdateStatus handles the customer-facing status endpoint. The only
	// transition it accepts is pending to cancelled; cancellation restores
	// each item's stock.
	UpdateStatus(ctx context.Context, id, requestingUserID string, req UpdateStatusRequest) (*Order, error)
}

type service struct {
	repo    Repository
	users   user.Repository
	catalog catalog.Service
	carts   cart.Service
	pricing pricing.Pricing
	logger  *slog.Logger
}

// NewService creates a new order service.
func NewService(repo Repository, users user.Repository, cat catalog.Service, carts cart.Service, p pricing.Pricing, logger *slog.Logger) Service {
	return &service{repo: repo, users: users, catalog: cat, carts: carts, pricing: p, logger: logger}
}

func (s *service) Create(ctx context.Context, userID string, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive")
		}
	}

	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	shipping := u.AddressByID(req.ShippingAddressID)
	if shipping == nil {
		return nil, apperr.NotFound("Shipping address not found")
	}
	// An unset or unknown billing address falls back to the shipping one.
	billing := u.AddressByID(req.BillingAddressID)
	if billing == nil {
		billing = shipping
	}
	method := u.PaymentMethodByID(req.PaymentMethodID)
	if method == nil {
		return nil, apperr.NotFound("Payment method not found")
	}

	var items []Item
	subtotal := 0.0
	for _, line := range req.Items {
		pv, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		v := pv.VariantByID(line.VariantID)
		if v == nil {
			return nil, apperr.NotFound("Variant not found")
		}
		if v.Inventory.Quantity < line.Quantity {
			return nil, &apperr.InsufficientStockError{
				ProductName: pv.Name,
				VariantID:   v.VariantID,
				Available:   v.Inventory.Quantity,
			}
		}

		name := pv.Name
		if v.Name != "" {
			name += " - " + v.Name
		}
		lineTotal := pricing.Round2(v.Price * float64(line.Quantity))
		subtotal += v.Price * float64(line.Quantity)
		items = append(items, Item{
			ID:          uuid.New(),
			ProductID:   line.ProductID,
			VariantID:   v.VariantID,
			ProductName: name,
			SKU:         v.SKU,
			UnitPrice:   v.Price,
			Quantity:    line.Quantity,
			TotalPrice:  lineTotal,
		})
	}

	summary := Summary{
		Subtotal: pricing.Round2(subtotal),
		Discount: 0,
	}
	summary.Tax = s.pricing.Tax(summary.Subtotal)
	summary.Shipping = s.pricing.Shipping(summary.Subtotal)
	summary.Total = pricing.Round2(summary.Subtotal + summary.Tax + summary.Shipping - summary.Discount)

	now := time.Now().UTC()
	o := &Order{
		ID:              uuid.New(),
		OrderNumber:     generateOrderNumber(),
		UserID:          userID,
		Status:          StatusPending,
		Items:           items,
		Summary:         summary,
		ShippingAddress: *shipping,
		BillingAddress:  *billing,
		Payment: Payment{
			Method:        method.Type,
			Status:        "pending",
			TransactionID: generateTransactionID(),
			Amount:        summary.Total,
		},
		Timeline: []TimelineEntry{
			{Status: StatusPending, Note: "Order placed", Timestamp: now},
		},
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	// Post-commit bookkeeping. Failures here do not undo the order.
	if _, err := s.carts.Clear(ctx, cart.UserOwner(userID)); err != nil {
		s.logger.Warn("failed to clear cart after order", "user_id", userID, "error", err)
	}
	points := int(math.Floor(summary.Total))
	if err := s.users.AddLoyaltyPoints(ctx, userID, points, summary.Total); err != nil {
		s.logger.Warn("failed to award loyalty points", "user_id", userID, "error", err)
	}
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id, requestingUserID string) (*Order, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != requestingUserID {
		return nil, apperr.PermissionDenied("Not authorized to access this order")
	}
	return o, nil
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber, requestingUserID string) (*Order, error) {
	o, err := s.repo.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, err
	}
	if o.UserID != requestingUserID {
		return nil, apperr.PermissionDenied("Not authorized to access this order")
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, userID string, q ListQuery) (*ListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	orders, total, err := s.repo.ListOrdersByUser(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return &ListResponse{
		Orders:     orders,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id, requestingUserID string, req UpdateStatusRequest) (*Order, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != requestingUserID {
		return nil, apperr.PermissionDenied("Not authorized to access this order")
	}
	if Status(req.Status) != StatusCancelled {
		return nil, apperr.InvalidTransition("Only cancellation is supported")
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return nil, apperr.InvalidTransition("Only pending orders can be cancelled")
	}

	note := req.Note
	if note == "" {
		note = "Order cancelled by customer"
	}
	entry := TimelineEntry{Status: StatusCancelled, Note: note, Timestamp: time.Now().UTC()}
	if err := s.repo.CancelOrder(ctx, o, entry); err != nil {
		return nil, err
	}
	o.Status = StatusCancelled
	o.Timeline = append(o.Timeline, entry)
	return o, nil
}

func (s *service) getOrder(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, err
	}
	return o, nil
}
