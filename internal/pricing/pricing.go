// Package pricing is the single place order totals are computed. Every path
// that creates an order (cart checkout, buy-now, payment-order creation) must
// price through NewQuote so the shipping rule cannot drift between call sites.
package pricing

import "github.com/shopspring/decimal"

var (
	// Orders above this subtotal ship free. The boundary is exclusive:
	// a subtotal of exactly 2000 still pays the flat fee.
	freeShippingThreshold = decimal.NewFromInt(2000)
	flatShippingFee       = decimal.NewFromInt(199)
)

// Quote is a priced order: subtotal of the line items, shipping fee, and the
// grand total. All values are in major currency units.
type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// NewQuote applies the shipping rule to a subtotal.
func NewQuote(subtotal decimal.Decimal) Quote {
	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

// ToPaise converts a major-unit amount to the gateway's minor units.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromPaise converts a gateway minor-unit amount back to major units.
func FromPaise(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}
