// Package txquery provides read-only filtered and sorted views of transactions.
package txquery

import (
	"sort"
	"strings"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Apply filters txs and then sorts the result. txs must be in canonical log
// order; it is never modified.
func Apply(txs []domain.Transaction, f domain.TransactionFilter, s domain.SortSpec) []domain.Transaction {
	return Sort(Filter(txs, f), s)
}

// Filter returns the transactions matching every non-empty field of f.
func Filter(txs []domain.Transaction, f domain.TransactionFilter) []domain.Transaction {
	items := make([]domain.Transaction, 0, len(txs))

	for _, tx := range txs {
		if Match(tx, f) {
			items = append(items, tx)
		}
	}

	return items
}

// Match reports whether tx satisfies f.
func Match(tx domain.Transaction, f domain.TransactionFilter) bool {
	if f.Kind != "" && tx.Kind != f.Kind {
		return false
	}

	if f.Status != "" && tx.Status != f.Status {
		return false
	}

	if f.Currency != "" && !tx.InvolvesCurrency(f.Currency) {
		return false
	}

	return true
}

// Sort returns a new slice ordered by s. Equal keys keep the input order for
// ascending sorts and the reversed input order for descending ones, so a
// descending view is always the exact reverse of the ascending one.
func Sort(txs []domain.Transaction, s domain.SortSpec) []domain.Transaction {
	cmp := compareFunc(s.Field)

	idx := make([]int, len(txs))
	for i := range idx {
		idx[i] = i
	}

	sort.Slice(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]

		c := cmp(txs[i], txs[j])
		if c == 0 {
			c = i - j
		}

		if s.Order == domain.OrderDesc {
			return c > 0
		}

		return c < 0
	})

	items := make([]domain.Transaction, len(txs))
	for k, i := range idx {
		items[k] = txs[i]
	}

	return items
}

func compareFunc(field domain.SortField) func(a, b domain.Transaction) int {
	switch field {
	case domain.SortByAmount:
		return func(a, b domain.Transaction) int {
			return a.Amount.Cmp(b.Amount)
		}
	case domain.SortByKind:
		return func(a, b domain.Transaction) int {
			return strings.Compare(string(a.Kind), string(b.Kind))
		}
	default:
		return func(a, b domain.Transaction) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
}
