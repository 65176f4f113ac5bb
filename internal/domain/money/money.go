// Package money holds currency codes and decimal helpers shared by pricing
// and checkout.
package money

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Currency is a lowercase ISO-4217 code as understood by the payment provider.
type Currency string

// Supported currencies.
const (
	USD Currency = "usd"
	EUR Currency = "eur"
)

// DefaultCurrency is used when nothing more specific is known, e.g. for an
// order without lines.
const DefaultCurrency = USD

// ErrUnknownCurrency is returned by ParseCurrency for unsupported codes.
var ErrUnknownCurrency = errors.New("unknown currency")

var supported = map[Currency]struct{}{
	USD: {},
	EUR: {},
}

// ParseCurrency normalizes s and checks that it is a supported currency.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", errors.Wrapf(ErrUnknownCurrency, "%q", s)
	}
	return c, nil
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	_, ok := supported[c]
	return ok
}

func (c Currency) String() string { return string(c) }

// Scale is the number of fraction digits kept for amounts.
const Scale = 2

// Round rounds d to Scale fraction digits, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// MinorUnits converts an amount to the smallest currency unit. The amount is
// rounded half-up to two fraction digits first, so 10.005 becomes 1001.
func MinorUnits(d decimal.Decimal) int64 {
	return Round(d).Shift(Scale).IntPart()
}

// PercentOf returns pct percent of amount without losing precision.
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct.Shift(-2))
}

// Format renders d with exactly Scale fraction digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// FormatRate renders a percentage with at least Scale fraction digits and
// every further significant one, so 7.125 stays "7.125".
func FormatRate(d decimal.Decimal) string {
	s := d.String()
	if _, frac, _ := strings.Cut(s, "."); len(frac) >= Scale {
		return s
	}
	return d.StringFixed(Scale)
}
