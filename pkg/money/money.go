// Package money provides the monetary value used by wallets and the ledger.
//
// Invariants:
//   - Amount is always stored in the smallest unit (cents), two decimals.
//   - Parsing never rounds: an input with more than two decimals is rejected.
//   - Values are bounded by MaxAmount so balance arithmetic cannot overflow.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fraction digits carried by an Amount.
const Decimals = 2

// MaxAmount is the largest magnitude accepted for a single amount (2^53-1 cents).
const MaxAmount Amount = 1<<53 - 1

var (
	// ErrInvalidAmount is returned when an amount is not a positive finite
	// decimal with at most two fraction digits.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAmountExceedsMaxSafeInt is returned when an amount exceeds MaxAmount.
	ErrAmountExceedsMaxSafeInt = fmt.Errorf("%w: exceeds maximum safe integer value", ErrInvalidAmount)
)

// Amount is a monetary amount in cents.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Parse parses a decimal string such as "12.5" or "3" into a positive Amount.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal into a positive Amount.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if err := checkMagnitude(d); err != nil {
		return 0, err
	}
	cents := d.Shift(Decimals)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: at most %d decimal places allowed", ErrInvalidAmount, Decimals)
	}
	if cents.GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, ErrAmountExceedsMaxSafeInt
	}
	return Amount(cents.IntPart()), nil
}

// maxIntegerDigits is the number of integer digits of MaxAmount in major units.
const maxIntegerDigits = 14

// maxFractionDigits bounds how many fraction digits are inspected, trailing
// zeros included, before an input is rejected.
const maxFractionDigits = Decimals + 20

// checkMagnitude rejects values whose exponent alone puts them out of range.
// It only reads the coefficient length and the exponent, so inputs such as
// "1e30000000" fail without building 10^exp.
func checkMagnitude(d decimal.Decimal) error {
	exp := int64(d.Exponent())
	if exp < -maxFractionDigits {
		return fmt.Errorf("%w: at most %d decimal places allowed", ErrInvalidAmount, Decimals)
	}
	if int64(d.NumDigits())+exp > maxIntegerDigits {
		return ErrAmountExceedsMaxSafeInt
	}
	return nil
}

// FromCents wraps a raw cent value.
func FromCents(cents int64) Amount { return Amount(cents) }

// Cents returns the raw cent value.
func (a Amount) Cents() int64 { return int64(a) }

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Decimals)
}

// Float64 returns the amount in major units for presentation.
func (a Amount) Float64() float64 {
	f, _ := a.Decimal().Float64()
	return f
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// Validate reports whether a can be used as an operation amount.
func (a Amount) Validate() error {
	if a <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}
	if a > MaxAmount {
		return ErrAmountExceedsMaxSafeInt
	}
	return nil
}

// Negate returns -a.
func (a Amount) Negate() Amount { return -a }

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Decimals)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Sign and
// precision are checked; zero and negative values are rejected.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "null" {
		return fmt.Errorf("%w: value is required", ErrInvalidAmount)
	}
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
