package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/pricing"
)

// TTL is how long an untouched cart survives before lookups ignore it.
const TTL = 7 * 24 * time.Hour

// OwnerKind distinguishes logged-in carts from anonymous ones.
type OwnerKind string

const (
	OwnerUser    OwnerKind = "user"
	OwnerSession OwnerKind = "session"
)

// Owner identifies who a cart belongs to. A cart has exactly one owner:
// either a user id or an anonymous session id, never both.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

func UserOwner(userID string) Owner { return Owner{Kind: OwnerUser, ID: userID} }

func SessionOwner(sessionID string) Owner { return Owner{Kind: OwnerSession, ID: sessionID} }

// Item is one product line in a cart. Price is captured at add time.
type Item struct {
	ProductID   string  `json:"product_id"`
	VariantID   string  `json:"variant_id"`
	ProductName string  `json:"product_name"`
	VariantName string  `json:"variant_name"`
	SKU         string  `json:"sku"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Image       string  `json:"image,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// LineTotal is the item's contribution to the subtotal.
func (i Item) LineTotal() float64 {
	return pricing.Round2(i.Price * float64(i.Quantity))
}

// Cart is a shopping cart with derived totals.
type Cart struct {
	ID             uuid.UUID `json:"id"`
	Owner          Owner     `json:"owner"`
	Items          []Item    `json:"items"`
	ItemsCount     int       `json:"items_count"`
	Subtotal       float64   `json:"subtotal"`
	Tax            float64   `json:"tax"`
	Shipping       float64   `json:"shipping"`
	EstimatedTotal float64   `json:"estimated_total"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Recompute rebuilds every derived total from the items and refreshes the
// expiry window. Call after every mutation, before persisting.
func (c *Cart) Recompute(p pricing.Pricing) {
	count := 0
	subtotal := 0.0
	for _, it := range c.Items {
		count += it.Quantity
		subtotal += it.Price * float64(it.Quantity)
	}
	c.ItemsCount = count
	c.Subtotal = pricing.Round2(subtotal)
	c.Tax = p.Tax(c.Subtotal)
	c.Shipping = p.Shipping(c.Subtotal)
	c.EstimatedTotal = pricing.Round2(c.Subtotal + c.Tax + c.Shipping)
	now := time.Now().UTC()
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(TTL)
}

// ItemIndex finds the line for a product/variant pair, or -1.
func (c *Cart) ItemIndex(productID, variantID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.VariantID == variantID {
			return i
		}
	}
	return -1
}

// AddItemRequest is the payload for adding a line to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateItemRequest changes a line's quantity; zero removes the line.
type UpdateItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// RemoveItemRequest removes one line from the cart.
type RemoveItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

// MergeRequest absorbs an anonymous session cart into the user's cart.
type MergeRequest struct {
	SessionID string `json:"session_id"`
}
