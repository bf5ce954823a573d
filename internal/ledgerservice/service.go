// Package ledgerservice manages business logic layer of the ledger: balances,
// the transaction log and the operations that move money between them.
package ledgerservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/balancerepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/txlogrepo"
	"github.com/go-petr/pet-ledger/internal/txquery"
)

// Oracle provides unit prices needed by the ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Oracle interface {
	PriceOf(ctx context.Context, currency string) (decimal.Decimal, error)
}

// Service owns one balance store and one transaction log and is their only
// mutator. It is safe for concurrent use.
type Service struct {
	mu       sync.RWMutex
	balances *balancerepo.Store
	log      *txlogrepo.Log
	oracle   Oracle

	now    func() time.Time
	newID  func() string
	strict bool
}

// Option configures a Service.
type Option func(*Service) error

// WithClock sets the source of transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		s.now = now
		return nil
	}
}

// WithIDGenerator sets the source of transaction ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) error {
		s.newID = newID
		return nil
	}
}

// WithStrictCurrencies rejects receives and sends in currencies the oracle
// cannot price.
func WithStrictCurrencies() Option {
	return func(s *Service) error {
		s.strict = true
		return nil
	}
}

// WithBalances seeds opening balances. Seeding records no transactions.
func WithBalances(balances map[string]decimal.Decimal) Option {
	return func(s *Service) error {
		for code, q := range balances {
			if q.IsZero() {
				continue
			}

			if err := s.balances.Credit(code, q); err != nil {
				return fmt.Errorf("seed %s: %w", code, err)
			}
		}

		return nil
	}
}

// New returns ledger service struct to manage ledger bussines logic.
func New(oracle Oracle, opts ...Option) (*Service, error) {
	s := &Service{
		balances: balancerepo.New(),
		log:      txlogrepo.New(),
		oracle:   oracle,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Service) validMovement(ctx context.Context, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	if currency == "" {
		return domain.ErrInvalidCurrency
	}

	if s.strict {
		if _, err := s.oracle.PriceOf(ctx, currency); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) newTransaction(kind domain.Kind, currency string, amount decimal.Decimal, description string) domain.Transaction {
	return domain.Transaction{
		ID:          s.newID(),
		Kind:        kind,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		CreatedAt:   s.now(),
		Status:      domain.StatusCompleted,
	}
}

// Receive credits amount to currency and records a completed receive.
func (s *Service) Receive(ctx context.Context, currency string, amount decimal.Decimal, description string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if err := s.validMovement(ctx, currency, amount); err != nil {
		l.Info().Err(err).Str("currency", currency).Str("amount", amount.String()).Msg("receive rejected")
		return domain.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.balances.BeginTx()
	defer tx.Rollback()

	if err := tx.Credit(currency, amount); err != nil {
		return domain.Transaction{}, err
	}

	t := s.newTransaction(domain.KindReceive, currency, amount, description)
	if err := s.log.Append(t); err != nil {
		l.Error().Err(err).Str("id", t.ID).Send()
		return domain.Transaction{}, err
	}

	tx.Commit()

	l.Debug().Str("id", t.ID).Str("currency", currency).Str("amount", amount.String()).Msg("received")

	return t, nil
}

// Send debits amount from currency and records a completed send.
//
// A rejected send leaves balances and the log untouched.
func (s *Service) Send(ctx context.Context, currency string, amount decimal.Decimal, description string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if err := s.validMovement(ctx, currency, amount); err != nil {
		l.Info().Err(err).Str("currency", currency).Str("amount", amount.String()).Msg("send rejected")
		return domain.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.balances.BeginTx()
	defer tx.Rollback()

	if err := tx.Debit(currency, amount); err != nil {
		l.Info().Err(err).Str("currency", currency).Str("amount", amount.String()).
			Str("balance", s.balances.Get(currency).String()).Msg("send rejected")
		return domain.Transaction{}, err
	}

	t := s.newTransaction(domain.KindSend, currency, amount, description)
	if err := s.log.Append(t); err != nil {
		l.Error().Err(err).Str("id", t.ID).Send()
		return domain.Transaction{}, err
	}

	tx.Commit()

	l.Debug().Str("id", t.ID).Str("currency", currency).Str("amount", amount.String()).Msg("sent")

	return t, nil
}

// Convert returns the amount of to worth amount of from at the current prices.
func (s *Service) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	fromPrice, err := s.oracle.PriceOf(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}

	toPrice, err := s.oracle.PriceOf(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}

	return convert(amount, fromPrice, toPrice), nil
}

func convert(amount, fromPrice, toPrice decimal.Decimal) decimal.Decimal {
	return amount.Mul(fromPrice).Div(toPrice)
}

// Swap converts amount of from into to and records both legs as one
// completed swap transaction.
//
// Both prices are read once before any mutation. Either both legs land or
// neither does.
func (s *Service) Swap(ctx context.Context, from, to string, amount decimal.Decimal) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx).With().Str("from", from).Str("to", to).Str("amount", amount.String()).Logger()

	if !amount.IsPositive() {
		l.Info().Err(domain.ErrInvalidAmount).Send()
		return domain.Transaction{}, domain.ErrInvalidAmount
	}

	if from == "" || to == "" {
		l.Info().Err(domain.ErrInvalidCurrency).Send()
		return domain.Transaction{}, domain.ErrInvalidCurrency
	}

	if from == to {
		l.Info().Err(domain.ErrSameCurrency).Send()
		return domain.Transaction{}, domain.ErrSameCurrency
	}

	toAmount, err := s.Convert(ctx, from, to, amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	if !toAmount.IsPositive() {
		l.Info().Err(domain.ErrInvalidAmount).Str("to_amount", toAmount.String()).Send()
		return domain.Transaction{}, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.balances.BeginTx()
	defer tx.Rollback()

	if err := tx.Debit(from, amount); err != nil {
		l.Info().Err(err).Str("balance", s.balances.Get(from).String()).Send()
		return domain.Transaction{}, err
	}

	if err := tx.Credit(to, toAmount); err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, err
	}

	t := s.newTransaction(domain.KindSwap, from, amount, fmt.Sprintf("swap %s %s to %s", amount, from, to))
	t.CounterCurrency = to
	t.CounterAmount = decimal.NewNullDecimal(toAmount)

	if err := s.log.Append(t); err != nil {
		l.Error().Err(err).Str("id", t.ID).Send()
		return domain.Transaction{}, err
	}

	tx.Commit()

	l.Debug().Str("id", t.ID).Str("to_amount", toAmount.String()).Msg("swapped")

	return t, nil
}

// GetBalance returns the quantity held in currency, zero if never credited.
func (s *Service) GetBalance(_ context.Context, currency string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.balances.Get(currency)
}

// GetAllBalances returns a copy of every balance keyed by currency.
func (s *Service) GetAllBalances(_ context.Context) map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.balances.All()

	items := make(map[string]decimal.Decimal, len(all))
	for _, b := range all {
		items[b.Currency] = b.Quantity
	}

	return items
}

// QueryTransactions returns a filtered and sorted snapshot of the log.
func (s *Service) QueryTransactions(_ context.Context, f domain.TransactionFilter, spec domain.SortSpec) []domain.Transaction {
	s.mu.RLock()
	snapshot := s.log.List()
	s.mu.RUnlock()

	return txquery.Apply(snapshot, f, spec)
}

// GetTransaction returns the transaction with the given id.
func (s *Service) GetTransaction(_ context.Context, id string) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.log.Get(id)
}

// UpdateStatus settles a pending transaction. Balances are not touched.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.log.UpdateStatus(id, status)
	if err != nil {
		l.Info().Err(err).Str("id", id).Str("status", string(status)).Send()
		return t, err
	}

	l.Debug().Str("id", id).Str("status", string(status)).Msg("status updated")

	return t, nil
}

// RemoveTransaction deletes a transaction from the log. It is an
// administrative action and does not touch balances.
func (s *Service) RemoveTransaction(ctx context.Context, id string) error {
	l := zerolog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.log.Remove(id); err != nil {
		l.Info().Err(err).Str("id", id).Send()
		return err
	}

	l.Warn().Str("id", id).Msg("transaction removed")

	return nil
}
