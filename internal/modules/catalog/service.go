package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
)

// Service defines the product catalog business logic.
type Service interface {
	// CreateProduct validates variant SKUs for uniqueness and persists the
	// product with generated variant ids.
	CreateProduct(ctx context.Context, createdBy string, req CreateProductRequest) (*Product, error)

	// GetProduct retrieves a product by UUID.
	GetProduct(ctx context.Context, id string) (*ProductView, error)

	// Search runs a filtered, sorted, paginated product search.
	Search(ctx context.Context, q SearchQuery) (*ProductListResponse, error)

	// UpdateProduct applies the non-nil fields of the request.
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)

	// DeleteProduct soft-deletes by flipping the status to inactive.
	DeleteProduct(ctx context.Context, id string) error

	// SetVariantQuantity overwrites a variant's sellable stock.
	SetVariantQuantity(ctx context.Context, productID, variantID string, quantity int) (*Product, error)

	// Recommendations returns active products sharing a category with the
	// given product, rated 3+ stars, best rated first.
	Recommendations(ctx context.Context, productID string, limit int) ([]*ProductView, error)

	// UpdateRating folds a new review rating into the product's roll-up.
	UpdateRating(ctx context.Context, productID string, rating int) error

	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context, parentID string, level *int) ([]*Category, error)
}

type service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

const minRecommendationRating = 3.0

func (s *service) CreateProduct(ctx context.Context, createdBy string, req CreateProductRequest) (*Product, error) {
	if req.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if len(req.Variants) == 0 {
		return nil, apperr.Validation("product must have at least one variant")
	}

	skus := make([]string, 0, len(req.Variants))
	seen := map[string]bool{}
	for _, v := range req.Variants {
		if v.SKU == "" {
			return nil, apperr.Validation("variant sku is required")
		}
		if v.Price <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("variant %s price must be positive", v.SKU))
		}
		if v.Quantity < 0 {
			return nil, apperr.Validation(fmt.Sprintf("variant %s quantity cannot be negative", v.SKU))
		}
		if seen[v.SKU] {
			return nil, apperr.Validation(fmt.Sprintf("duplicate variant sku %s", v.SKU))
		}
		seen[v.SKU] = true
		skus = append(skus, v.SKU)
	}
	taken, err := s.repo.ExistingVariantSKUs(ctx, skus)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, apperr.Conflict(fmt.Sprintf("sku already exists: %s", strings.Join(taken, ", ")))
	}

	now := time.Now().UTC()
	p := &Product{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		Brand:          req.Brand,
		Categories:     req.Categories,
		Specifications: req.Specifications,
		SearchKeywords: req.SearchKeywords,
		RatingSummary:  NewRatingSummary(),
		Status:         StatusActive,
		Tags:           req.Tags,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	basePrice := 0.0
	for i, vr := range req.Variants {
		v := Variant{
			VariantID:  fmt.Sprintf("VAR-%03d", i+1),
			Name:       vr.Name,
			SKU:        vr.SKU,
			Price:      vr.Price,
			Attributes: vr.Attributes,
			Inventory: Inventory{
				Quantity:          vr.Quantity,
				WarehouseLocation: vr.WarehouseLocation,
			},
			Images:   vr.Images,
			IsActive: true,
		}
		if basePrice == 0 || v.Price < basePrice {
			basePrice = v.Price
		}
		p.Variants = append(p.Variants, v)
	}
	p.BasePrice = basePrice
	p.SKU = req.Variants[0].SKU

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to persist product: %w", err)
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	p, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductView(p), nil
}

func (s *service) Search(ctx context.Context, q SearchQuery) (*ProductListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	products, total, err := s.repo.SearchProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	totalPages := (total + q.Limit - 1) / q.Limit
	return &ProductListResponse{
		Products:   views,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	p, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Categories != nil {
		p.Categories = req.Categories
	}
	if req.Specifications != nil {
		p.Specifications = req.Specifications
	}
	if req.SearchKeywords != nil {
		p.SearchKeywords = req.SearchKeywords
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	if req.Status != nil {
		switch *req.Status {
		case StatusActive, StatusInactive, StatusDiscontinued:
			p.Status = *req.Status
		default:
			return nil, apperr.Validation("invalid status: " + *req.Status)
		}
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.SetProductStatus(ctx, id, StatusInactive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("product not found")
		}
		return err
	}
	return nil
}

func (s *service) SetVariantQuantity(ctx context.Context, productID, variantID string, quantity int) (*Product, error) {
	if quantity < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}
	p, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	v := p.VariantByID(variantID)
	if v == nil {
		return nil, apperr.NotFound("variant not found")
	}
	if err := s.repo.SetVariantQuantity(ctx, productID, variantID, quantity); err != nil {
		return nil, err
	}
	v.Inventory.Quantity = quantity
	return p, nil
}

func (s *service) Recommendations(ctx context.Context, productID string, limit int) ([]*ProductView, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	p, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.repo.Recommendations(ctx, p, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*ProductView, 0, len(candidates))
	for _, c := range candidates {
		if c.RatingSummary.TotalReviews > 0 && c.RatingSummary.AverageRating < minRecommendationRating {
			continue
		}
		views = append(views, NewProductView(c))
	}
	return views, nil
}

func (s *service) UpdateRating(ctx context.Context, productID string, rating int) error {
	p, err := s.getProduct(ctx, productID)
	if err != nil {
		return err
	}
	rs := p.RatingSummary
	rs.Apply(rating)
	return s.repo.UpdateRatingSummary(ctx, productID, rs)
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	if req.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	slug := req.Slug
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(req.Name, " ", "-"))
	}
	if existing, err := s.repo.GetCategoryBySlug(ctx, slug); err == nil && existing != nil {
		return nil, apperr.Conflict("category slug already exists")
	}

	c := &Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Level:       0,
		Path:        slug,
		Children:    []string{},
		SortOrder:   req.SortOrder,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if req.ImageURL != "" {
		c.Image = &Image{URL: req.ImageURL}
	}
	if req.ParentID != "" {
		parent, err := s.repo.GetCategoryByID(ctx, req.ParentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.NotFound("parent category not found")
			}
			return nil, err
		}
		c.ParentID = parent.ID.String()
		c.Level = parent.Level + 1
		c.Path = parent.Path + "/" + slug
	}

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	if c.ParentID != "" {
		if err := s.repo.AddCategoryChild(ctx, c.ParentID, c.ID.String()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *service) GetCategory(ctx context.Context, id string) (*Category, error) {
	c, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, err
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context, parentID string, level *int) ([]*Category, error) {
	return s.repo.ListCategories(ctx, parentID, level)
}

func (s *service) getProduct(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}
	return p, nil
}
