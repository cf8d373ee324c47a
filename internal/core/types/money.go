// Package types provides common amount types for the ledger core.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnits represents a monetary value in minor currency units (cents).
// Storage: int64 - sufficient for ±92 quadrillion cents.
// Example: 123.45 → 12345.
type MinorUnits int64

// ParseMoney parses a decimal money string ("123.45") into minor units.
// This is the only place money strings enter the system; everything past
// the DTO boundary works on int64 cents.
func ParseMoney(s string) (MinorUnits, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("money %q has more than 2 decimal places", s)
	}
	return MinorUnits(cents.IntPart()), nil
}

// MustMoney parses a money string, panicking on error. Use only in tests and seeds.
func MustMoney(s string) MinorUnits {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromFloat converts a float major-unit amount to minor units.
// Prefer ParseMoney for values arriving as strings.
func NewMoneyFromFloat(f float64) MinorUnits {
	return MinorUnits(decimal.NewFromFloat(f).Shift(2).Round(0).IntPart())
}

// String formats the amount as a major-unit decimal string ("123.45").
func (m MinorUnits) String() string {
	return decimal.New(int64(m), -2).StringFixed(2)
}

// Decimal returns the amount as a decimal major-unit value.
func (m MinorUnits) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
func (m MinorUnits) Neg() MinorUnits  { return -m }

func (m MinorUnits) Abs() MinorUnits {
	if m < 0 {
		return -m
	}
	return m
}

// MinMoney returns the smaller of two amounts.
func MinMoney(a, b MinorUnits) MinorUnits {
	if a < b {
		return a
	}
	return b
}

// Quantity is a whole-unit stock quantity. Stock is counted in integral
// packs/pieces; fractional quantities do not exist in this domain.
type Quantity int64

func (q Quantity) IsZero() bool     { return q == 0 }
func (q Quantity) IsPositive() bool { return q > 0 }
func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Int64() int64 { return int64(q) }

// String renders the quantity as a plain integer.
func (q Quantity) String() string {
	return fmt.Sprintf("%d", int64(q))
}
