package models

import "github.com/shopspring/decimal"

// ShippingFee is charged on every order with a positive subtotal.
const ShippingFee = 10.0

// Totals is the price breakdown of a set of line items.
type Totals struct {
	Items    float64 `json:"itemsPrice"`
	Shipping float64 `json:"shippingPrice"`
	Total    float64 `json:"totalPrice"`
}

// PriceItems sums price × quantity over items and adds ShippingFee when the subtotal is positive.
// Amounts are rounded to cents.
func PriceItems(items []OrderItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	subtotal = subtotal.Round(2)

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = decimal.NewFromFloat(ShippingFee)
	}

	return Totals{
		Items:    subtotal.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    subtotal.Add(shipping).Round(2).InexactFloat64(),
	}
}
