package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTax(t *testing.T) {
	p := Default()
	assert.Equal(t, 4.80, p.Tax(60.00))
	assert.Equal(t, 3.20, p.Tax(40.00))
	assert.Equal(t, 0.00, p.Tax(0))
}

func TestShipping(t *testing.T) {
	p := Default()
	assert.Equal(t, 0.00, p.Shipping(50.00))
	assert.Equal(t, 0.00, p.Shipping(120.00))
	assert.Equal(t, 9.99, p.Shipping(49.99))
	assert.Equal(t, 0.00, p.Shipping(0))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 53.19, Round2(40.00+3.20+9.99))
	assert.Equal(t, 0.1, Round2(0.1))
	assert.Equal(t, 2.68, Round2(2.675000001))
}

func TestCustomRates(t *testing.T) {
	p := Pricing{TaxRate: 0.2, FreeShippingThreshold: 100, FlatShippingFee: 5}
	assert.Equal(t, 10.00, p.Tax(50))
	assert.Equal(t, 5.00, p.Shipping(99.99))
	assert.Equal(t, 0.00, p.Shipping(100))
}
