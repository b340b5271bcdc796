package model

import (
	"github.com/shopspring/decimal"
)

var (
	// TaxMultiplier is applied to menu prices for display
	TaxMultiplier = decimal.RequireFromString("1.1")

	// MaxMenuPrice is the largest value a decimal(6,2) price column holds
	MaxMenuPrice = decimal.RequireFromString("9999.99")
)

const (
	MinQuantity = 1
	MaxQuantity = 32767
)

// LineSubtotal is unit × quantity rounded to cents
func LineSubtotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

func WithTax(price decimal.Decimal) decimal.Decimal {
	return price.Mul(TaxMultiplier).Round(2)
}

// ValidPrice reports whether p fits between 0 and MaxMenuPrice with at most two decimals
func ValidPrice(p decimal.Decimal) bool {
	if p.IsNegative() || p.GreaterThan(MaxMenuPrice) {
		return false
	}
	return p.Equal(p.Round(2))
}
