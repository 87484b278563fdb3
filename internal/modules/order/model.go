package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/modules/user"
)

// Status is an order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// validTransitions defines the allowed status state machine. Cancelled,
// delivered and completed are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusDelivered, StatusCompleted},
	StatusShipped:    {StatusDelivered, StatusCompleted},
	StatusDelivered:  {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Item is an immutable snapshot of a product line at time of purchase,
// deliberately decoupled from live product state.
type Item struct {
	ID          uuid.UUID `json:"id"`
	ProductID   string    `json:"product_id"`
	VariantID   string    `json:"variant_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	UnitPrice   float64   `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	TotalPrice  float64   `json:"total_price"`
}

// Summary is the order's financial breakdown.
// Total = Subtotal + Tax + Shipping - Discount.
type Summary struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Payment is the synthetic payment record attached at checkout. No gateway
// is called; the record starts pending with a locally generated id.
type Payment struct {
	Method        string  `json:"method"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
}

// TimelineEntry records one status transition.
type TimelineEntry struct {
	Status    Status    `json:"status"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is a placed order. Items are immutable after creation; the only
// permitted mutation is appending timeline entries.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          string          `json:"user_id"`
	Status          Status          `json:"status"`
	Items           []Item          `json:"items"`
	Summary         Summary         `json:"summary"`
	ShippingAddress user.Address    `json:"shipping_address"`
	BillingAddress  user.Address    `json:"billing_address"`
	Payment         Payment         `json:"payment"`
	Timeline        []TimelineEntry `json:"timeline"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// generateOrderNumber creates a human-readable order number:
// ORD-YYYYMMDD-XXXXXXXX. Collisions are treated as negligible; the unique
// index on order_number is the safety net.
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}

// generateTransactionID creates a local payment transaction id: txn_ plus
// 16 hex chars.
func generateTransactionID() string {
	return "txn_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}

// ── Requests & responses ─────────────────────────────────────────────────────

// LineRequest is one requested product line at checkout.
type LineRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items             []LineRequest `json:"items"`
	ShippingAddressID string        `json:"shipping_address_id"`
	BillingAddressID  string        `json:"billing_address_id,omitempty"`
	PaymentMethodID   string        `json:"payment_method_id"`
	Notes             string        `json:"notes,omitempty"`
}

// UpdateStatusRequest is the payload for the customer status endpoint;
// cancellation is the only transition it accepts.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// ListQuery holds order listing filters.
type ListQuery struct {
	Status string
	Page   int
	Limit  int
}

// ListResponse is a paginated order listing.
type ListResponse struct {
	Orders     []*Order `json:"orders"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"total_pages"`
}
