package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCurrency indicates that no price is configured for the currency.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrInvalidPrice indicates a non-positive unit price.
	ErrInvalidPrice = errors.New("invalid price")
)

// Balance holds the quantity held in one currency.
type Balance struct {
	Currency string          `json:"currency"`
	Quantity decimal.Decimal `json:"quantity"` // never negative
}

// Price holds the unit value of a currency expressed in the reference currency.
type Price struct {
	Currency  string          `json:"currency"`
	UnitValue decimal.Decimal `json:"unit_value"` // must be positive
}
