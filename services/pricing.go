package services

import (
	"github.com/shopspring/decimal"

	"go-grocery/models"
)

// Line is one priced quantity.
type Line struct {
	Price    float64
	Quantity int
}

// LinesFromCart returns the pricing lines of a cart.
func LinesFromCart(items []models.CartItem) []Line {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{Price: item.Price, Quantity: item.Quantity}
	}
	return lines
}

// PriceCalculator applies the shipping and tax policy. Results are
// rounded to cents. Line order never affects the result.
type PriceCalculator struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Subtotal is Σ price × quantity.
func Subtotal(lines []Line) float64 {
	return subtotal(lines).Round(2).InexactFloat64()
}

// Totals computes items, tax, shipping and grand total. Shipping is free
// only when the subtotal is strictly above the threshold.
func (c PriceCalculator) Totals(lines []Line) models.Totals {
	items := subtotal(lines).Round(2)

	shipping := c.ShippingFee
	if items.GreaterThan(c.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	shipping = shipping.Round(2)

	tax := items.Mul(c.TaxRate).Round(2)
	total := items.Add(shipping).Add(tax)

	return models.Totals{
		ItemsPrice:    items.InexactFloat64(),
		TaxPrice:      tax.InexactFloat64(),
		ShippingPrice: shipping.InexactFloat64(),
		TotalPrice:    total.InexactFloat64(),
	}
}
