// Package txlogrepo manages the transaction log of a ledger.
package txlogrepo

import (
	"sort"

	"github.com/go-petr/pet-ledger/internal/domain"
)

type entry struct {
	tx  domain.Transaction
	seq uint64
}

// Log holds transactions ordered by creation time, ties broken by insertion order.
//
// Log is not safe for concurrent use. The owning ledger serializes access.
type Log struct {
	entries []*entry
	byID    map[string]*entry
	seen    map[string]struct{}
	nextSeq uint64
}

// New returns an empty log.
func New() *Log {
	return &Log{
		byID: make(map[string]*entry),
		seen: make(map[string]struct{}),
	}
}

// Len returns the number of transactions in the log.
func (l *Log) Len() int {
	return len(l.entries)
}

// Append inserts tx at its chronological position.
//
// The id must never have been used before, including by removed transactions.
func (l *Log) Append(tx domain.Transaction) error {
	if tx.ID == "" {
		return domain.ErrDuplicateTransaction
	}

	if _, ok := l.seen[tx.ID]; ok {
		return domain.ErrDuplicateTransaction
	}

	if !tx.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	if tx.CounterAmount.Valid && !tx.CounterAmount.Decimal.IsPositive() {
		return domain.ErrInvalidAmount
	}

	e := &entry{tx: tx, seq: l.nextSeq}
	l.nextSeq++

	// first entry created strictly after tx; equal timestamps keep insertion order
	i := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].tx.CreatedAt.After(tx.CreatedAt)
	})

	l.entries = append(l.entries, nil)
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = e

	l.byID[tx.ID] = e
	l.seen[tx.ID] = struct{}{}

	return nil
}

// Get returns the transaction with the given id.
func (l *Log) Get(id string) (domain.Transaction, error) {
	e, ok := l.byID[id]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return e.tx, nil
}

// UpdateStatus moves a pending transaction to a terminal status.
func (l *Log) UpdateStatus(id string, status domain.Status) (domain.Transaction, error) {
	e, ok := l.byID[id]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	if !e.tx.Status.CanTransition(status) {
		return e.tx, domain.ErrInvalidTransition
	}

	e.tx.Status = status

	return e.tx, nil
}

// Remove deletes the transaction with the given id. Its id stays reserved.
func (l *Log) Remove(id string) error {
	e, ok := l.byID[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	for i := range l.entries {
		if l.entries[i] == e {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			break
		}
	}

	delete(l.byID, id)

	return nil
}

// List returns a copy of all transactions in canonical order.
func (l *Log) List() []domain.Transaction {
	items := make([]domain.Transaction, len(l.entries))
	for i, e := range l.entries {
		items[i] = e.tx
	}

	return items
}
