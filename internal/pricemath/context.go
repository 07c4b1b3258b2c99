// Package pricemath provides the fixed-point price arithmetic shared by every
// market view: divisibility scaling, ratio prices and decimal formatting.
package pricemath

import (
	"github.com/shopspring/decimal"
)

// Fractional digits used when rendering decimal strings.
const (
	PricePlaces     int32 = 8
	PercentPlaces   int32 = 2
	MarketCapPlaces int32 = 4
)

// divGuardPlaces is the scale of intermediate quotients before they are
// rounded to the context precision.
const divGuardPlaces int32 = 32

// Context carries the rounding rules for decimal arithmetic. Every operation
// rounds its result to Precision significant digits, half to even.
type Context struct {
	Precision int32
}

// DefaultContext rounds to 8 significant digits.
func DefaultContext() Context {
	return Context{Precision: 8}
}

// Round rounds d to the context precision.
func (c Context) Round(d decimal.Decimal) decimal.Decimal {
	if c.Precision <= 0 || d.IsZero() {
		return d
	}
	// adjusted exponent of the most significant digit
	adjusted := d.Exponent() + int32(d.NumDigits()) - 1
	places := c.Precision - 1 - adjusted
	if places >= -d.Exponent() {
		return d
	}
	return d.RoundBank(places)
}

// Sub returns a-b rounded to the context precision.
func (c Context) Sub(a, b decimal.Decimal) decimal.Decimal {
	return c.Round(a.Sub(b))
}

// Mul returns a*b rounded to the context precision.
func (c Context) Mul(a, b decimal.Decimal) decimal.Decimal {
	return c.Round(a.Mul(b))
}

// Div returns a/b rounded to the context precision. ok is false when b is zero.
func (c Context) Div(a, b decimal.Decimal) (decimal.Decimal, bool) {
	if b.IsZero() {
		return decimal.Zero, false
	}
	return c.Round(a.DivRound(b, divGuardPlaces)), true
}

// Fixed renders d with exactly places fractional digits, half to even.
func Fixed(d decimal.Decimal, places int32) string {
	return d.StringFixedBank(places)
}

// FixedFloat renders f with exactly places fractional digits, half to even.
// Rounding applies to the exact binary value of f, not its shortest decimal
// form, so 1.000000015 renders as "1.00000001".
func FixedFloat(f float64, places int32) string {
	return Fixed(decimal.NewFromFloatWithExponent(f, minFloatExponent), places)
}

// minFloatExponent is low enough for NewFromFloatWithExponent to keep every
// binary digit of any float64.
const minFloatExponent = -1074
