package skips

import (
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// TotalPrice returns the gross price rounded half-up to 2 places.
// Negative prices and rates outside [0,1] are rejected.
func TotalPrice(priceBeforeVAT, vat decimal.Decimal) (decimal.Decimal, error) {
	if priceBeforeVAT.LessThan(zero) {
		return decimal.Decimal{}, &InvariantError{Field: "price_before_vat", Value: priceBeforeVAT.String()}
	}
	if vat.LessThan(zero) || vat.GreaterThan(one) {
		return decimal.Decimal{}, &InvariantError{Field: "vat", Value: vat.String()}
	}
	// Round on non-negative values is half-up.
	return priceBeforeVAT.Mul(one.Add(vat)).Round(2), nil
}

// FormatGBP renders an amount the way the booking pages show it, e.g. £180.00.
func FormatGBP(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-£" + amount.Neg().StringFixed(2)
	}
	return "£" + amount.StringFixed(2)
}
