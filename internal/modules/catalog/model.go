package catalog

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// ProductStatus values. Products are never hard-deleted; deletion flips the
// status to inactive.
const (
	StatusActive       = "active"
	StatusInactive     = "inactive"
	StatusDiscontinued = "discontinued"
)

// Image is a product or variant image.
type Image struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"is_primary"`
}

// Inventory tracks sellable and reserved stock for a variant. Quantity is
// available-to-sell; Reserved is held by unfulfilled orders.
type Inventory struct {
	Quantity          int    `json:"quantity"`
	Reserved          int    `json:"reserved"`
	WarehouseLocation string `json:"warehouse_location,omitempty"`
}

// Variant is a purchasable SKU-level configuration of a product.
type Variant struct {
	VariantID  string            `json:"variant_id"`
	Name       string            `json:"name"`
	SKU        string            `json:"sku"`
	Price      float64           `json:"price"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Inventory  Inventory         `json:"inventory"`
	Images     []Image           `json:"images,omitempty"`
	IsActive   bool              `json:"is_active"`
}

// RatingSummary is the product-level review roll-up.
type RatingSummary struct {
	AverageRating float64        `json:"average_rating"`
	TotalReviews  int            `json:"total_reviews"`
	Distribution  map[string]int `json:"rating_distribution"` // "1".."5" -> count
}

// NewRatingSummary returns an empty roll-up with all buckets present.
func NewRatingSummary() RatingSummary {
	return RatingSummary{
		Distribution: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0},
	}
}

// Apply folds one new rating into the running average and distribution.
func (rs *RatingSummary) Apply(rating int) {
	newTotal := rs.TotalReviews + 1
	rs.AverageRating = math.Round(((rs.AverageRating*float64(rs.TotalReviews))+float64(rating))/float64(newTotal)*100) / 100
	rs.TotalReviews = newTotal
	if rs.Distribution == nil {
		rs.Distribution = map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
	}
	switch rating {
	case 1:
		rs.Distribution["1"]++
	case 2:
		rs.Distribution["2"]++
	case 3:
		rs.Distribution["3"]++
	case 4:
		rs.Distribution["4"]++
	case 5:
		rs.Distribution["5"]++
	}
}

// Product is a catalog entry with one or more variants.
type Product struct {
	ID             uuid.UUID       `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Brand          string          `json:"brand"`
	Categories     []string        `json:"categories"`
	BasePrice      float64         `json:"base_price"`
	Variants       []Variant       `json:"variants"`
	Specifications json.RawMessage `json:"specifications,omitempty"`
	SearchKeywords []string        `json:"search_keywords,omitempty"`
	RatingSummary  RatingSummary   `json:"rating_summary"`
	Status         string          `json:"status"`
	Tags           []string        `json:"tags,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// VariantByID returns the variant with the given id, or nil.
func (p *Product) VariantByID(variantID string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].VariantID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// PrimaryImage is the first image flagged primary, falling back to any image.
func (p *Product) PrimaryImage() string {
	for _, v := range p.Variants {
		for _, img := range v.Images {
			if img.IsPrimary {
				return img.URL
			}
		}
	}
	for _, v := range p.Variants {
		if len(v.Images) > 0 {
			return v.Images[0].URL
		}
	}
	return ""
}

// PriceRange returns the min and max price across active variants.
func (p *Product) PriceRange() (float64, float64) {
	min, max := 0.0, 0.0
	first := true
	for _, v := range p.Variants {
		if !v.IsActive {
			continue
		}
		if first || v.Price < min {
			min = v.Price
		}
		if first || v.Price > max {
			max = v.Price
		}
		first = false
	}
	return min, max
}

// InStock reports whether any active variant has sellable stock.
func (p *Product) InStock() bool {
	for _, v := range p.Variants {
		if v.IsActive && v.Inventory.Quantity > 0 {
			return true
		}
	}
	return false
}

// TotalInventory sums sellable stock across all variants.
func (p *Product) TotalInventory() int {
	total := 0
	for _, v := range p.Variants {
		total += v.Inventory.Quantity
	}
	return total
}

// Category is a node in the product category tree.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	Level       int       `json:"level"`
	Path        string    `json:"path"`
	Children    []string  `json:"children"`
	Image       *Image    `json:"image,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ── Requests & responses ─────────────────────────────────────────────────────

// CreateVariantRequest describes one variant at product creation.
type CreateVariantRequest struct {
	Name              string            `json:"name"`
	SKU               string            `json:"sku"`
	Price             float64           `json:"price"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	Quantity          int               `json:"quantity"`
	WarehouseLocation string            `json:"warehouse_location,omitempty"`
	Images            []Image           `json:"images,omitempty"`
}

// CreateProductRequest is the payload for product creation.
type CreateProductRequest struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Brand          string                 `json:"brand"`
	Categories     []string               `json:"categories"`
	Variants       []CreateVariantRequest `json:"variants"`
	Specifications json.RawMessage        `json:"specifications,omitempty"`
	SearchKeywords []string               `json:"search_keywords,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
}

// UpdateProductRequest is the payload for product updates; nil fields are
// left untouched.
type UpdateProductRequest struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Brand          *string         `json:"brand,omitempty"`
	Categories     []string        `json:"categories,omitempty"`
	Specifications json.RawMessage `json:"specifications,omitempty"`
	SearchKeywords []string        `json:"search_keywords,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Status         *string         `json:"status,omitempty"`
}

// SearchQuery holds product search filters.
type SearchQuery struct {
	Q         string
	Category  string
	Brand     string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	InStock   bool
	Tags      []string
	SortBy    string // relevance, price_asc, price_desc, rating, newest
	Page      int
	Limit     int
}

// ProductView decorates a product with derived display fields.
type ProductView struct {
	*Product
	PrimaryImage string     `json:"primary_image,omitempty"`
	PriceRange   [2]float64 `json:"price_range"`
	InStock      bool       `json:"in_stock"`
}

// NewProductView computes the derived fields for a product.
func NewProductView(p *Product) *ProductView {
	min, max := p.PriceRange()
	return &ProductView{
		Product:      p,
		PrimaryImage: p.PrimaryImage(),
		PriceRange:   [2]float64{min, max},
		InStock:      p.InStock(),
	}
}

// ProductListResponse is a paginated product listing.
type ProductListResponse struct {
	Products   []*ProductView `json:"products"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// CreateCategoryRequest is the payload for category creation.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int    `json:"sort_order,omitempty"`
}
