package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/modules/catalog"
	"github.com/georgemunganga/shopcart-backend/internal/pricing"
)

// Service defines the shopping cart business logic.
type Service interface {
	// GetCart returns the owner's cart, creating an empty one if none exists.
	GetCart(ctx context.Context, owner Owner) (*Cart, error)

	// AddItem validates the product and variant, checks stock, and merges
	// the quantity into any existing line for the same variant.
	AddItem(ctx context.Context, owner Owner, req AddItemRequest) (*Cart, error)

	// UpdateItem changes a line's quantity; zero removes the line.
	UpdateItem(ctx context.Context, owner Owner, req UpdateItemRequest) (*Cart, error)

	RemoveItem(ctx context.Context, owner Owner, req RemoveItemRequest) (*Cart, error)

	// Clear empties the cart but keeps the row.
	Clear(ctx context.Context, owner Owner) (*Cart, error)

	// Merge absorbs the session cart into the user's cart and deletes it.
	// When the user has no cart the session cart is reassigned instead.
	Merge(ctx context.Context, userID, sessionID string) (*Cart, error)

	// Count returns the total item quantity without the full cart body.
	Count(ctx context.Context, owner Owner) (int, error)
}

type service struct {
	repo    Repository
	catalog catalog.Service
	pricing pricing.Pricing
}

// NewService creates a new cart service.
func NewService(repo Repository, catalog catalog.Service, p pricing.Pricing) Service {
	return &service{repo: repo, catalog: catalog, pricing: p}
}

func (s *service) GetCart(ctx context.Context, owner Owner) (*Cart, error) {
	return s.getOrCreate(ctx, owner)
}

func (s *service) AddItem(ctx context.Context, owner Owner, req AddItemRequest) (*Cart, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	pv, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if pv.Status != catalog.StatusActive {
		return nil, apperr.Validation("product is not available")
	}
	v := pv.VariantByID(req.VariantID)
	if v == nil || !v.IsActive {
		return nil, apperr.NotFound("variant not found")
	}

	c, err := s.getOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	// Stock check is advisory: the hard reservation happens at checkout.
	newQty := req.Quantity
	if i := c.ItemIndex(req.ProductID, req.VariantID); i >= 0 {
		newQty += c.Items[i].Quantity
	}
	if v.Inventory.Quantity < newQty {
		return nil, &apperr.InsufficientStockError{
			ProductName: pv.Name,
			VariantID:   v.VariantID,
			Available:   v.Inventory.Quantity,
		}
	}

	if i := c.ItemIndex(req.ProductID, req.VariantID); i >= 0 {
		c.Items[i].Quantity = newQty
	} else {
		c.Items = append(c.Items, Item{
			ProductID:   req.ProductID,
			VariantID:   v.VariantID,
			ProductName: pv.Name,
			VariantName: v.Name,
			SKU:         v.SKU,
			Price:       v.Price,
			Quantity:    req.Quantity,
			Image:       pv.PrimaryImage,
			AddedAt:     time.Now().UTC(),
		})
	}
	return s.save(ctx, c)
}

func (s *service) UpdateItem(ctx context.Context, owner Owner, req UpdateItemRequest) (*Cart, error) {
	if req.Quantity < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}
	c, err := s.getOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := c.ItemIndex(req.ProductID, req.VariantID)
	if i < 0 {
		return nil, apperr.NotFound("item not in cart")
	}
	if req.Quantity == 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return s.save(ctx, c)
	}

	pv, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if v := pv.VariantByID(req.VariantID); v != nil && v.Inventory.Quantity < req.Quantity {
		return nil, &apperr.InsufficientStockError{
			ProductName: pv.Name,
			VariantID:   v.VariantID,
			Available:   v.Inventory.Quantity,
		}
	}
	c.Items[i].Quantity = req.Quantity
	return s.save(ctx, c)
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, req RemoveItemRequest) (*Cart, error) {
	c, err := s.getOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := c.ItemIndex(req.ProductID, req.VariantID)
	if i < 0 {
		return nil, apperr.NotFound("item not in cart")
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return s.save(ctx, c)
}

func (s *service) Clear(ctx context.Context, owner Owner) (*Cart, error) {
	c, err := s.getOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.Items = nil
	return s.save(ctx, c)
}

func (s *service) Merge(ctx context.Context, userID, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, apperr.Validation("session_id is required")
	}
	sessionCart, err := s.repo.GetByOwner(ctx, SessionOwner(sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.getOrCreate(ctx, UserOwner(userID))
		}
		return nil, err
	}

	userCart, err := s.repo.GetByOwner(ctx, UserOwner(userID))
	if errors.Is(err, sql.ErrNoRows) {
		// No user cart yet: the session cart simply changes hands.
		if err := s.repo.SetOwner(ctx, sessionCart.ID.String(), UserOwner(userID)); err != nil {
			return nil, err
		}
		sessionCart.Owner = UserOwner(userID)
		return s.save(ctx, sessionCart)
	}
	if err != nil {
		return nil, err
	}

	for _, it := range sessionCart.Items {
		if i := userCart.ItemIndex(it.ProductID, it.VariantID); i >= 0 {
			userCart.Items[i].Quantity += it.Quantity
		} else {
			userCart.Items = append(userCart.Items, it)
		}
	}
	merged, err := s.save(ctx, userCart)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, sessionCart.ID.String()); err != nil {
		return nil, fmt.Errorf("delete merged cart: %w", err)
	}
	return merged, nil
}

func (s *service) Count(ctx context.Context, owner Owner) (int, error) {
	c, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return c.ItemsCount, nil
}

func (s *service) getOrCreate(ctx context.Context, owner Owner) (*Cart, error) {
	if owner.ID == "" {
		return nil, apperr.Validation("cart owner is required")
	}
	c, err := s.repo.GetByOwner(ctx, owner)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	now := time.Now().UTC()
	c = &Cart{
		ID:        uuid.New(),
		Owner:     owner,
		CreatedAt: now,
	}
	c.Recompute(s.pricing)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) save(ctx context.Context, c *Cart) (*Cart, error) {
	c.Recompute(s.pricing)
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
