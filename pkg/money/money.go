// Package money provides functionality for handling monetary values.
//
// Amounts are decimals with two fractional digits. They are persisted as
// integer cents so storage arithmetic never goes through floating point.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every amount.
const Scale = 2

// Cent is the smallest representable amount.
var Cent = decimal.New(1, -Scale)

// ErrInvalidAmount is returned when a string cannot be parsed as an amount.
var ErrInvalidAmount = fmt.Errorf("invalid amount")

// Parse reads an amount written with either '.' or ',' as decimal separator
// and rounds it to Scale digits.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Round(d), nil
}

// Round rounds d half away from zero to Scale digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// ToCents converts an amount to its integer number of cents.
func ToCents(d decimal.Decimal) int64 {
	return Round(d).Shift(Scale).IntPart()
}

// FromCents converts an integer number of cents back to an amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -Scale)
}

// Format renders d with exactly Scale fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// Code is an ISO 4217 currency code. It labels an account for display;
// amounts are never converted between currencies.
type Code string

// EUR is the currency of new accounts unless another is given.
const EUR Code = "EUR"

// IsValid checks if the currency code is three upper-case letters.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	return c[0] >= 'A' && c[0] <= 'Z' &&
		c[1] >= 'A' && c[1] <= 'Z' &&
		c[2] >= 'A' && c[2] <= 'Z'
}
