package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every monetary value carries
const MoneyPlaces = 2

// Money is a monetary amount rounded to two decimal places. It serialises as
// a JSON number with exactly two decimals, e.g. 120.50.
type Money struct {
	d decimal.Decimal
}

// ZeroMoney is 0.00
var ZeroMoney = NewMoney(decimal.Zero)

// NewMoney rounds d half away from zero to two places
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(MoneyPlaces)}
}

// MustMoney parses a decimal string and panics on malformed input.
// Intended for constants and tests.
func MustMoney(s string) Money {
	return NewMoney(decimal.RequireFromString(s))
}

// Decimal returns the underlying value
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// IsNegative reports whether the amount is below zero
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// Add returns m + o
func (m Money) Add(o Money) Money {
	return NewMoney(m.d.Add(o.d))
}

// Equal compares by value, ignoring representation
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// String returns the amount with exactly two decimals
func (m Money) String() string {
	return m.d.StringFixed(MoneyPlaces)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both quoted and bare numbers
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = NewMoney(d)
	return nil
}
