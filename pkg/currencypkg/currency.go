// Package currencypkg provides common currency related functionality for apps.
package currencypkg

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Limits of a currency code length.
const (
	MinCodeLen = 2
	MaxCodeLen = 10
)

// Mask replaces amounts while balances are hidden.
const Mask = "****"

// IsValidCode returns true if code is a plausible currency ticker: ASCII
// letters and digits only, within the length limits. Codes are case-sensitive.
func IsValidCode(code string) bool {
	if len(code) < MinCodeLen || len(code) > MaxCodeLen {
		return false
	}

	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}

// IsFiat returns true for ISO 4217 currencies known to go-money.
func IsFiat(code string) bool {
	return money.GetCurrency(code) != nil
}

// Format renders quantity for display. ISO currencies use their symbol and
// minor unit digits; other tickers keep full precision followed by the code.
func Format(code string, quantity decimal.Decimal) string {
	c := money.GetCurrency(code)
	if c == nil {
		return quantity.String() + " " + code
	}

	minor := quantity.Shift(int32(c.Fraction)).Round(0)

	return c.Formatter().Format(minor.IntPart())
}
