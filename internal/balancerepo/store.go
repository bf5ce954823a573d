// Package balancerepo manages the per-currency balance store of a ledger.
package balancerepo

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// ErrTxDone is returned when staging on a committed or rolled back Tx.
var ErrTxDone = errors.New("balance transaction already finished")

// Store maps currency codes to non-negative quantities.
//
// Store is not safe for concurrent use. The owning ledger serializes access.
type Store struct {
	balances map[string]decimal.Decimal
}

// New returns an empty store.
func New() *Store {
	return &Store{balances: make(map[string]decimal.Decimal)}
}

// Get returns the quantity held in currency, zero when the currency is unknown.
// It never creates an entry.
func (s *Store) Get(currency string) decimal.Decimal {
	q, ok := s.balances[currency]
	if !ok {
		return decimal.Zero
	}

	return q
}

// Has reports whether the currency has an entry, even a zero one.
func (s *Store) Has(currency string) bool {
	_, ok := s.balances[currency]
	return ok
}

// All returns a copy of every balance ordered by currency code.
func (s *Store) All() []domain.Balance {
	items := make([]domain.Balance, 0, len(s.balances))
	for code, q := range s.balances {
		items = append(items, domain.Balance{Currency: code, Quantity: q})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Currency < items[j].Currency })

	return items
}

// Credit adds amount to currency, creating the entry if absent.
func (s *Store) Credit(currency string, amount decimal.Decimal) error {
	tx := s.BeginTx()
	defer tx.Rollback()

	if err := tx.Credit(currency, amount); err != nil {
		return err
	}

	tx.Commit()

	return nil
}

// Debit subtracts amount from currency. The check and the subtraction happen
// in one step.
func (s *Store) Debit(currency string, amount decimal.Decimal) error {
	tx := s.BeginTx()
	defer tx.Rollback()

	if err := tx.Debit(currency, amount); err != nil {
		return err
	}

	tx.Commit()

	return nil
}

// BeginTx starts a staged set of mutations that lands on Commit or is
// discarded on Rollback.
func (s *Store) BeginTx() *Tx {
	return &Tx{
		store:  s,
		deltas: make(map[string]decimal.Decimal),
	}
}

// Tx stages credits and debits against a Store.
//
// Debits are validated against the store balance plus everything already
// staged in the same Tx, so a Tx can never commit a negative balance.
type Tx struct {
	store  *Store
	deltas map[string]decimal.Decimal
	order  []string
	done   bool
}

// Get returns the quantity of currency as it would be after Commit.
func (tx *Tx) Get(currency string) decimal.Decimal {
	return tx.store.Get(currency).Add(tx.deltas[currency])
}

// Credit stages an addition of amount to currency.
func (tx *Tx) Credit(currency string, amount decimal.Decimal) error {
	if err := tx.validate(currency, amount); err != nil {
		return err
	}

	tx.stage(currency, amount)

	return nil
}

// Debit stages a subtraction of amount from currency.
func (tx *Tx) Debit(currency string, amount decimal.Decimal) error {
	if err := tx.validate(currency, amount); err != nil {
		return err
	}

	if tx.Get(currency).LessThan(amount) {
		return domain.ErrInsufficientBalance
	}

	tx.stage(currency, amount.Neg())

	return nil
}

// Commit applies the staged mutations. Commit after Commit or Rollback is a no-op.
func (tx *Tx) Commit() {
	if tx.done {
		return
	}

	for _, code := range tx.order {
		tx.store.balances[code] = tx.store.Get(code).Add(tx.deltas[code])
	}

	tx.done = true
}

// Rollback discards the staged mutations. It is safe to defer after Commit.
func (tx *Tx) Rollback() {
	tx.done = true
}

func (tx *Tx) stage(currency string, delta decimal.Decimal) {
	if _, ok := tx.deltas[currency]; !ok {
		tx.order = append(tx.order, currency)
	}

	tx.deltas[currency] = tx.deltas[currency].Add(delta)
}

func (tx *Tx) validate(currency string, amount decimal.Decimal) error {
	if tx.done {
		return ErrTxDone
	}

	if currency == "" {
		return domain.ErrInvalidCurrency
	}

	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	return nil
}
