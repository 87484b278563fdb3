// Package pricing holds the totals math shared by carts and orders.
package pricing

import "math"

// Pricing carries the tax and shipping rules applied to a subtotal.
type Pricing struct {
	TaxRate               float64
	FreeShippingThreshold float64
	FlatShippingFee       float64
}

// Default returns the standard rates: 8% tax, free shipping at $50,
// otherwise a flat $9.99 fee.
func Default() Pricing {
	return Pricing{
		TaxRate:               0.08,
		FreeShippingThreshold: 50.0,
		FlatShippingFee:       9.99,
	}
}

// Tax returns the rounded tax on the subtotal.
func (p Pricing) Tax(subtotal float64) float64 {
	return Round2(subtotal * p.TaxRate)
}

// Shipping returns the shipping cost for the subtotal. An empty cart
// ships for nothing.
func (p Pricing) Shipping(subtotal float64) float64 {
	if subtotal <= 0 || subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.FlatShippingFee
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
