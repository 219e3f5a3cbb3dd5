// Package core provides money parsing and handling utilities.
//
// Amounts are stored as integer cents. Decimal currency units only appear at
// the boundary, where they are converted with shopspring/decimal so that no
// float rounding leaks into the ledger.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseMoney converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signed
// values are accepted here; callers that need a positive magnitude call
// Validate on the result.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("12,345") -> 1235
//	ParseMoney("-3")     -> -300
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d to cents, half away from zero.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(1<<62)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units for numeric work such as
// forecasting. Use cents for ledger arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
