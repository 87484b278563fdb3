package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingSummaryApply(t *testing.T) {
	rs := NewRatingSummary()

	rs.Apply(5)
	assert.Equal(t, 5.0, rs.AverageRating)
	assert.Equal(t, 1, rs.TotalReviews)

	rs.Apply(3)
	assert.Equal(t, 4.0, rs.AverageRating)
	assert.Equal(t, 2, rs.TotalReviews)

	rs.Apply(4)
	assert.Equal(t, 4.0, rs.AverageRating)
	assert.Equal(t, 3, rs.TotalReviews)

	assert.Equal(t, map[string]int{"1": 0, "2": 0, "3": 1, "4": 1, "5": 1}, rs.Distribution)
}

func TestRatingSummaryApplyRounds(t *testing.T) {
	rs := NewRatingSummary()
	rs.Apply(5)
	rs.Apply(4)
	rs.Apply(4)
	// 13/3 = 4.333...
	assert.Equal(t, 4.33, rs.AverageRating)
}

func testVariants() []Variant {
	return []Variant{
		{VariantID: "VAR-001", Price: 19.99, Inventory: Inventory{Quantity: 0}, IsActive: true},
		{VariantID: "VAR-002", Price: 24.99, Inventory: Inventory{Quantity: 3}, IsActive: true},
		{VariantID: "VAR-003", Price: 9.99, Inventory: Inventory{Quantity: 7}, IsActive: false},
	}
}

func TestPriceRangeSkipsInactiveVariants(t *testing.T) {
	p := &Product{Variants: testVariants()}
	min, max := p.PriceRange()
	assert.Equal(t, 19.99, min)
	assert.Equal(t, 24.99, max)
}

func TestInStock(t *testing.T) {
	p := &Product{Variants: testVariants()}
	// VAR-002 is active with stock; VAR-003 has stock but is inactive.
	assert.True(t, p.InStock())

	p.Variants[1].Inventory.Quantity = 0
	assert.False(t, p.InStock())
}

func TestVariantByID(t *testing.T) {
	p := &Product{Variants: testVariants()}
	v := p.VariantByID("VAR-002")
	require.NotNil(t, v)
	assert.Equal(t, 24.99, v.Price)
	assert.Nil(t, p.VariantByID("VAR-009"))
}

func TestPrimaryImage(t *testing.T) {
	p := &Product{Variants: []Variant{
		{VariantID: "VAR-001", Images: []Image{{URL: "a.jpg"}}},
		{VariantID: "VAR-002", Images: []Image{{URL: "b.jpg"}, {URL: "c.jpg", IsPrimary: true}}},
	}}
	assert.Equal(t, "c.jpg", p.PrimaryImage())

	p.Variants[1].Images[1].IsPrimary = false
	assert.Equal(t, "a.jpg", p.PrimaryImage())
}
