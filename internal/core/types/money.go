// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundCents rounds a Money value to two decimal places.
// All settlement line items and balances are stored in cents precision.
func RoundCents(m Money) Money {
	return m.Round(2)
}

// Percent converts a percentage value (e.g. 19 for 19%) into the
// multiplicative factor 0.19.
func Percent(p Money) Money {
	return p.Div(decimal.NewFromInt(100))
}

// GrossFromNet computes a gross amount from a net amount and a tax rate
// in percent: gross = net * (1 + rate/100).
func GrossFromNet(net, taxRate Money) Money {
	return RoundCents(net.Mul(decimal.NewFromInt(1).Add(Percent(taxRate))))
}

// ClampMoney limits v to the inclusive range [lo, hi].
func ClampMoney(v, lo, hi Money) Money {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
