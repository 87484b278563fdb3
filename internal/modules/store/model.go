package store

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// earthRadiusMeters is the mean earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two points
// given as latitude/longitude degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Address is a store's physical address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// DayHours are the opening hours for one weekday.
type DayHours struct {
	Open   string `json:"open,omitempty"`  // "09:00"
	Close  string `json:"close,omitempty"` // "21:00"
	Closed bool   `json:"closed,omitempty"`
}

// InventoryItem is one product's stock at a store.
type InventoryItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Store is a physical retail location.
type Store struct {
	ID        uuid.UUID           `json:"id"`
	StoreID   string              `json:"store_id"`
	Name      string              `json:"name"`
	Address   Address             `json:"address"`
	Longitude float64             `json:"longitude"`
	Latitude  float64             `json:"latitude"`
	Phone     string              `json:"phone,omitempty"`
	Email     string              `json:"email,omitempty"`
	Hours     map[string]DayHours `json:"hours"` // keyed by lowercase weekday
	Services  []string            `json:"services,omitempty"`
	Manager   string              `json:"manager,omitempty"`
	Inventory []InventoryItem     `json:"inventory,omitempty"`
	IsActive  bool                `json:"is_active"`
	CreatedAt time.Time           `json:"created_at"`
}

// IsOpenAt reports whether the store is open at the given local time,
// based on its per-weekday hours.
func (s *Store) IsOpenAt(t time.Time) bool {
	day := strings.ToLower(t.Weekday().String())
	h, ok := s.Hours[day]
	if !ok || h.Closed || h.Open == "" || h.Close == "" {
		return false
	}
	now := t.Format("15:04")
	return now >= h.Open && now < h.Close
}

// View decorates a store with the caller-relative distance and computed
// open state.
type View struct {
	*Store
	DistanceMeters float64 `json:"distance_meters"`
	IsOpenNow      bool    `json:"is_open_now"`
}

// CreateStoreRequest is the payload for registering a store.
type CreateStoreRequest struct {
	StoreID   string              `json:"store_id"`
	Name      string              `json:"name"`
	Address   Address             `json:"address"`
	Longitude float64             `json:"longitude"`
	Latitude  float64             `json:"latitude"`
	Phone     string              `json:"phone,omitempty"`
	Email     string              `json:"email,omitempty"`
	Hours     map[string]DayHours `json:"hours,omitempty"`
	Services  []string            `json:"services,omitempty"`
	Manager   string              `json:"manager,omitempty"`
}

// SetInventoryRequest upserts one inventory line at a store.
type SetInventoryRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// SearchQuery holds nearby-store search parameters. Radius is meters.
type SearchQuery struct {
	Latitude  float64
	Longitude float64
	Radius    float64
	ProductID string
	VariantID string
	Services  []string
	OpenNow   bool
	Limit     int
}

// ListQuery holds flat store listing filters.
type ListQuery struct {
	City   string
	State  string
	Active *bool
}
