// Package priceoracle supplies unit prices of currencies in the reference currency.
package priceoracle

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Static is an in-memory price table. It is safe for concurrent use.
type Static struct {
	mu        sync.RWMutex
	reference string
	prices    map[string]decimal.Decimal
}

// New returns a price table seeded with prices expressed in the reference currency.
func New(reference string, prices map[string]decimal.Decimal) (*Static, error) {
	s := &Static{
		reference: reference,
		prices:    make(map[string]decimal.Decimal, len(prices)),
	}

	for code, p := range prices {
		if err := s.Set(code, p); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Reference returns the currency all prices are expressed in.
func (s *Static) Reference() string {
	return s.reference
}

// PriceOf returns the unit value of currency.
func (s *Static) PriceOf(_ context.Context, currency string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[currency]
	if !ok {
		return decimal.Zero, domain.ErrUnknownCurrency
	}

	return p, nil
}

// Set replaces the unit value of currency.
func (s *Static) Set(currency string, unitValue decimal.Decimal) error {
	if currency == "" {
		return domain.ErrInvalidCurrency
	}

	if !unitValue.IsPositive() {
		return domain.ErrInvalidPrice
	}

	s.mu.Lock()
	s.prices[currency] = unitValue
	s.mu.Unlock()

	return nil
}

// Prices returns all configured prices ordered by currency code.
func (s *Static) Prices() []domain.Price {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Price, 0, len(s.prices))
	for code, p := range s.prices {
		items = append(items, domain.Price{Currency: code, UnitValue: p})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Currency < items[j].Currency })

	return items
}
