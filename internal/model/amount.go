// Package model defines the ledger primitives shared across the application:
// monetary amounts, postings, cost specifications, transactions and lots.
package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantization exponents. Share quantities and per-unit costs carry six
// decimal places; cash amounts carry two. All rounding is half-even so
// repeated imports never drift.
const (
	CashPlaces     = 2
	QuantityPlaces = 6
	CostPlaces     = 6
)

// Amount is a decimal quantity of some currency or commodity symbol.
// The zero value is 0 of the empty currency.
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// NewAmount builds an Amount without any quantization.
func NewAmount(number decimal.Decimal, currency string) Amount {
	return Amount{Number: number, Currency: currency}
}

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount {
	return Amount{Number: a.Number.Neg(), Currency: a.Currency}
}

// IsZero reports whether the amount's number is exactly zero.
func (a Amount) IsZero() bool {
	return a.Number.IsZero()
}

// Equal reports numeric and currency equality.
func (a Amount) Equal(b Amount) bool {
	return a.Currency == b.Currency && a.Number.Equal(b.Number)
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Number.String(), a.Currency)
}

// QuantizeCash rounds to cents, half-even.
func QuantizeCash(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(CashPlaces)
}

// QuantizeQuantity rounds a share quantity to six places, half-even.
func QuantizeQuantity(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(QuantityPlaces)
}

// QuantizeCost rounds a per-unit cost to six places, half-even.
func QuantizeCost(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(CostPlaces)
}

// ParseNumber parses a statement numeric field. Currency symbols, commas
// and surrounding whitespace are stripped; accounting-style parentheses
// negate the value. An empty string is not a number.
func ParseNumber(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	negate := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negate = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	// Venmo writes signs with a space, as in "+ $500.00".
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty numeric field %q", raw)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid numeric field %q: %w", raw, err)
	}
	if negate {
		d = d.Neg()
	}
	return d, nil
}

// ParseCash parses a cash field and quantizes it to cents.
func ParseCash(raw string) (decimal.Decimal, error) {
	d, err := ParseNumber(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return QuantizeCash(d), nil
}

// ParseQuantity parses a share-quantity field and quantizes it to six
// places.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	d, err := ParseNumber(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return QuantizeQuantity(d), nil
}
