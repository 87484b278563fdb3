package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
)

// Service defines the store locator business logic.
type Service interface {
	// CreateStore registers a store; the human-readable store_id is unique.
	CreateStore(ctx context.Context, req CreateStoreRequest) (*Store, error)

	GetStore(ctx context.Context, id string) (*Store, error)
	ListStores(ctx context.Context, q ListQuery) ([]*Store, error)

	// Search finds nearby stores by haversine distance, closest first.
	Search(ctx context.Context, q SearchQuery) ([]*View, error)

	// NearbyWithProduct finds stores stocking the product, closest first.
	NearbyWithProduct(ctx context.Context, productID string, q SearchQuery) ([]*View, error)

	// SetInventory upserts one inventory line at the store.
	SetInventory(ctx context.Context, storeID string, req SetInventoryRequest) (*Store, error)
}

type service struct {
	repo Repository
}

// NewService creates a new store service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

const (
	defaultRadiusMeters = 25000.0
	maxResults          = 50
)

func (s *service) CreateStore(ctx context.Context, req CreateStoreRequest) (*Store, error) {
	if req.StoreID == "" {
		return nil, apperr.Validation("store_id is required")
	}
	if req.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return nil, apperr.Validation("invalid coordinates")
	}
	if _, err := s.repo.GetStoreByStoreID(ctx, req.StoreID); err == nil {
		return nil, apperr.Conflict("store_id already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hours := req.Hours
	if hours == nil {
		hours = map[string]DayHours{}
	}
	st := &Store{
		ID:        uuid.New(),
		StoreID:   req.StoreID,
		Name:      req.Name,
		Address:   req.Address,
		Longitude: req.Longitude,
		Latitude:  req.Latitude,
		Phone:     req.Phone,
		Email:     req.Email,
		Hours:     hours,
		Services:  req.Services,
		Manager:   req.Manager,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateStore(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) GetStore(ctx context.Context, id string) (*Store, error) {
	st, err := s.repo.GetStoreByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Store not found")
		}
		return nil, err
	}
	return st, nil
}

func (s *service) ListStores(ctx context.Context, q ListQuery) ([]*Store, error) {
	return s.repo.ListStores(ctx, q)
}

func (s *service) Search(ctx context.Context, q SearchQuery) ([]*View, error) {
	if q.Latitude < -90 || q.Latitude > 90 || q.Longitude < -180 || q.Longitude > 180 {
		return nil, apperr.Validation("invalid coordinates")
	}
	if q.Radius <= 0 {
		q.Radius = defaultRadiusMeters
	}
	if q.Limit < 1 || q.Limit > maxResults {
		q.Limit = 10
	}
	stores, distances, err := s.repo.Nearby(ctx, q)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]*View, 0, len(stores))
	for i, st := range stores {
		open := st.IsOpenAt(now)
		if q.OpenNow && !open {
			continue
		}
		views = append(views, &View{
			Store:          st,
			DistanceMeters: distances[i],
			IsOpenNow:      open,
		})
	}
	return views, nil
}

func (s *service) NearbyWithProduct(ctx context.Context, productID string, q SearchQuery) ([]*View, error) {
	q.ProductID = productID
	return s.Search(ctx, q)
}

func (s *service) SetInventory(ctx context.Context, storeID string, req SetInventoryRequest) (*Store, error) {
	if req.ProductID == "" || req.VariantID == "" {
		return nil, apperr.Validation("product_id and variant_id are required")
	}
	if req.Quantity < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}
	st, err := s.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	item := InventoryItem{ProductID: req.ProductID, VariantID: req.VariantID, Quantity: req.Quantity}
	if err := s.repo.SetInventory(ctx, st.ID.String(), item); err != nil {
		return nil, err
	}
	return s.GetStore(ctx, storeID)
}
