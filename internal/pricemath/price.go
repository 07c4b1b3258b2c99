package pricemath

import (
	"math"

	"github.com/shopspring/decimal"
)

// Unit is the number of base units in one whole divisible asset.
const Unit int64 = 100000000

// Scale converts a quantity to divisible units. Indivisible quantities are
// multiplied by Unit in float64 so that large supplies cannot overflow.
func Scale(quantity int64, divisible bool) float64 {
	if divisible {
		return float64(quantity)
	}
	return float64(quantity) * float64(Unit)
}

// Price returns quote per one base in human-scale units. ok is false when the
// ratio is undefined (zero base quantity or a non-finite result).
func Price(baseQty, quoteQty int64, baseDivisible, quoteDivisible bool) (price float64, ok bool) {
	base := Scale(baseQty, baseDivisible)
	if base == 0 {
		return 0, false
	}
	p := Scale(quoteQty, quoteDivisible) / base
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}

// CalculatePrice is Price with undefined ratios reported as 0.
func CalculatePrice(baseQty, quoteQty int64, baseDivisible, quoteDivisible bool) float64 {
	p, _ := Price(baseQty, quoteQty, baseDivisible, quoteDivisible)
	return p
}

// FormatPrice renders CalculatePrice at PricePlaces.
func FormatPrice(baseQty, quoteQty int64, baseDivisible, quoteDivisible bool) string {
	return FixedFloat(CalculatePrice(baseQty, quoteQty, baseDivisible, quoteDivisible), PricePlaces)
}

// Progression is the percentage change from price24h to price. It is zero
// when price24h is zero.
func (c Context) Progression(price, price24h float64) decimal.Decimal {
	prev := decimal.NewFromFloat(price24h)
	onePercent, ok := c.Div(prev, decimal.NewFromInt(100))
	if !ok {
		return decimal.Zero
	}
	p, ok := c.Div(c.Sub(decimal.NewFromFloat(price), prev), onePercent)
	if !ok {
		return decimal.Zero
	}
	return p
}

// MarketCap returns supply * price rendered at MarketCapPlaces. A price that
// does not parse yields a zero market cap.
func (c Context) MarketCap(supply int64, price string) string {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Fixed(decimal.Zero, MarketCapPlaces)
	}
	return Fixed(c.Mul(decimal.NewFromInt(supply), p), MarketCapPlaces)
}

// Percent returns part / (whole/100). ok is false when whole is zero.
func (c Context) Percent(part, whole int64) (decimal.Decimal, bool) {
	onePercent, ok := c.Div(decimal.NewFromInt(whole), decimal.NewFromInt(100))
	if !ok || onePercent.IsZero() {
		return decimal.Zero, false
	}
	return c.Div(decimal.NewFromInt(part), onePercent)
}

// ComparePercent compares part/whole*100 with pct without rounding and
// returns -1, 0 or +1. whole must be positive.
func ComparePercent(part, whole int64, pct float64) int {
	lhs := decimal.NewFromInt(part).Mul(decimal.NewFromInt(100))
	rhs := decimal.NewFromFloat(pct).Mul(decimal.NewFromInt(whole))
	return lhs.Cmp(rhs)
}

// Completion returns the filled share of an order as "NN.NN%". ok is false
// when the order quantity is zero.
func (c Context) Completion(quantity, remaining int64) (string, bool) {
	filled, ok := c.Div(decimal.NewFromInt(quantity-remaining), decimal.NewFromInt(quantity))
	if !ok {
		return "", false
	}
	return Fixed(c.Mul(filled, decimal.NewFromInt(100)), PercentPlaces) + "%", true
}
