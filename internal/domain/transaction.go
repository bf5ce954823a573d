// Package domain provides defenitions of all ledger entities.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates a non-positive or non-numeric amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance indicates that the debit exceeds the available quantity.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSameCurrency indicates a swap with identical source and destination currency.
	ErrSameCurrency = errors.New("same currency")
	// ErrInvalidCurrency indicates an empty currency code.
	ErrInvalidCurrency = errors.New("invalid currency")
	// ErrTransactionNotFound indicates that the transaction is not in the log.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransition indicates a status change out of a terminal status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDuplicateTransaction indicates that the transaction id is already used.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
)

// Kind is the type of money movement recorded by a transaction.
type Kind string

// Transaction kinds.
const (
	KindSend    Kind = "send"
	KindReceive Kind = "receive"
	KindSwap    Kind = "swap"
)

// ParseKind parses a transaction kind label.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSend, KindReceive, KindSwap:
		return k, nil
	}

	return "", ErrInvalidFilter
}

// Status is the settlement state of a transaction.
type Status string

// Transaction statuses. Completed and failed are terminal.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ParseStatus parses a transaction status label.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusCompleted, StatusFailed:
		return st, nil
	}

	return "", ErrInvalidFilter
}

// IsTerminal reports whether no further status change is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the status may move from s to next.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && next.IsTerminal()
}

// Transaction holds a single money movement.
//
// CounterCurrency and CounterAmount are set only for swaps and describe the
// destination leg.
type Transaction struct {
	ID              string              `json:"id"`
	Kind            Kind                `json:"kind"`
	Amount          decimal.Decimal     `json:"amount"` // must be positive
	Currency        string              `json:"currency"`
	CounterCurrency string              `json:"counter_currency,omitempty"`
	CounterAmount   decimal.NullDecimal `json:"counter_amount"`
	Description     string              `json:"description"`
	CreatedAt       time.Time           `json:"created_at"`
	Status          Status              `json:"status"`
}

// InvolvesCurrency reports whether either leg of the transaction is in currency.
func (t Transaction) InvolvesCurrency(currency string) bool {
	return t.Currency == currency || (t.CounterCurrency != "" && t.CounterCurrency == currency)
}

// ParseAmount parses a positive decimal amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	return d, nil
}
