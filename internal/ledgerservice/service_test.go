package ledgerservice

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/priceoracle"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newOracle(t *testing.T) *priceoracle.Static {
	t.Helper()

	o, err := priceoracle.New("USD", map[string]decimal.Decimal{
		"BTC": d("45000"),
		"ETH": d("3200"),
		"USD": d("1"),
	})
	require.NoError(t, err)

	return o
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()

	opts = append([]Option{WithBalances(map[string]decimal.Decimal{"BTC": d("1.25")})}, opts...)

	s, err := New(newOracle(t), opts...)
	require.NoError(t, err)

	return s
}

func requireBalance(t *testing.T, s *Service, currency, want string) {
	t.Helper()

	got := s.GetBalance(context.Background(), currency)
	require.True(t, got.Equal(d(want)), "%s balance: got %s want %s", currency, got, want)
}

func TestReceive(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		currency      string
		amount        decimal.Decimal
		opts          []Option
		checkResponse func(t *testing.T, s *Service, tx domain.Transaction, err error)
	}{
		{
			name:     "OK",
			currency: "BTC",
			amount:   d("0.75"),
			checkResponse: func(t *testing.T, s *Service, tx domain.Transaction, err error) {
				require.NoError(t, err)
				require.NotEmpty(t, tx.ID)
				require.Equal(t, domain.KindReceive, tx.Kind)
				require.Equal(t, domain.StatusCompleted, tx.Status)
				require.Equal(t, "BTC", tx.Currency)
				require.Empty(t, tx.CounterCurrency)
				require.False(t, tx.CounterAmount.Valid)
				require.Equal(t, "salary", tx.Description)
				requireBalance(t, s, "BTC", "2")
			},
		},
		{
			name:     "Implicit currency creation",
			currency: "DOGE",
			amount:   d("10"),
			checkResponse: func(t *testing.T, s *Service, tx domain.Transaction, err error) {
				require.NoError(t, err)
				requireBalance(t, s, "DOGE", "10")
			},
		},
		{
			name:     "Strict unknown currency",
			currency: "DOGE",
			amount:   d("10"),
			opts:     []Option{WithStrictCurrencies()},
			checkResponse: func(t *testing.T, s *Service, tx domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrUnknownCurrency)
				require.Empty(t, tx)
				require.NotContains(t, s.GetAllBalances(ctx), "DOGE")
			},
		},
		{
			name:     "Zero amount",
			currency: "BTC",
			amount:   decimal.Zero,
			checkResponse: func(t *testing.T, s *Service, tx domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
				requireBalance(t, s, "BTC", "1.25")
			},
		},
		{
			name:     "Negative amount",
			currency: "BTC",
			amount:   d("-3"),
			checkResponse: func(t *testing.T, s *Service, tx domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
				requireBalance(t, s, "BTC", "1.25")
			},
		},
		{
			name:     "Empty currency",
			currency: "",
			amount:   d("1"),
			checkResponse: func(t *testing.T, s *Service, tx domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidCurrency)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newService(t, tc.opts...)

			tx, err := s.Receive(ctx, tc.currency, tc.amount, "salary")
			tc.checkResponse(t, s, tx, err)

			want := 0
			if err == nil {
				want = 1
			}
			require.Len(t, s.QueryTransactions(ctx, domain.TransactionFilter{}, domain.DefaultSort), want)
		})
	}
}

func TestSendInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	tx, err := s.Send(ctx, "BTC", d("2.0"), "rent")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	require.Empty(t, tx)

	requireBalance(t, s, "BTC", "1.25")
	require.Empty(t, s.QueryTransactions(ctx, domain.TransactionFilter{}, domain.DefaultSort))
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	tx, err := s.Send(ctx, "BTC", d("1.25"), "all in")
	require.NoError(t, err)
	require.Equal(t, domain.KindSend, tx.Kind)
	require.Equal(t, domain.StatusCompleted, tx.Status)
	requireBalance(t, s, "BTC", "0")

	_, err = s.Send(ctx, "ETH", d("1"), "")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = s.Send(ctx, "BTC", decimal.Zero, "")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	require.Len(t, s.QueryTransactions(ctx, domain.TransactionFilter{}, domain.DefaultSort), 1)
}

func TestReceiveSendSequence(t *testing.T) {
	ctx := context.Background()

	s, err := New(newOracle(t))
	require.NoError(t, err)

	expected := decimal.Zero

	for i := 0; i < 200; i++ {
		amount := randompkg.Amount(0.0001, 5)

		if randompkg.Intn(2) == 0 {
			_, err := s.Receive(ctx, "ETH", amount, "")
			require.NoError(t, err)
			expected = expected.Add(amount)
		} else {
			_, err := s.Send(ctx, "ETH", amount, "")
			if expected.LessThan(amount) {
				require.ErrorIs(t, err, domain.ErrInsufficientBalance)
			} else {
				require.NoError(t, err)
				expected = expected.Sub(amount)
			}
		}

		got := s.GetBalance(ctx, "ETH")
		require.True(t, got.Equal(expected), "step %d: got %s want %s", i, got, expected)
		require.False(t, got.IsNegative())
	}
}

func TestSwap(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	tx, err := s.Swap(ctx, "BTC", "ETH", d("0.5"))
	require.NoError(t, err)

	requireBalance(t, s, "BTC", "0.75")
	requireBalance(t, s, "ETH", "7.03125")

	require.Equal(t, domain.KindSwap, tx.Kind)
	require.Equal(t, domain.StatusCompleted, tx.Status)
	require.Equal(t, "BTC", tx.Currency)
	require.True(t, tx.Amount.Equal(d("0.5")))
	require.Equal(t, "ETH", tx.CounterCurrency)
	require.True(t, tx.CounterAmount.Valid)
	require.True(t, tx.CounterAmount.Decimal.Equal(d("7.03125")))

	all := s.QueryTransactions(ctx, domain.TransactionFilter{}, domain.DefaultSort)
	require.Len(t, all, 1)

	byETH := s.QueryTransactions(ctx, domain.TransactionFilter{Currency: "ETH"}, domain.DefaultSort)
	require.Len(t, byETH, 1)
	require.Equal(t, tx.ID, byETH[0].ID)
}

func TestSwapRejected(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		from    string
		to      string
		amount  decimal.Decimal
		wantErr error
	}{
		{"Zero amount", "BTC", "ETH", decimal.Zero, domain.ErrInvalidAmount},
		{"Negative amount", "BTC", "ETH", d("-1"), domain.ErrInvalidAmount},
		{"Same currency", "BTC", "BTC", d("0.5"), domain.ErrSameCurrency},
		{"Unknown source", "DOGE", "ETH", d("0.5"), domain.ErrUnknownCurrency},
		{"Unknown destination", "BTC", "DOGE", d("0.5"), domain.ErrUnknownCurrency},
		{"Insufficient balance", "BTC", "ETH", d("1.26"), domain.ErrInsufficientBalance},
		{"Empty currency", "", "ETH", d("1"), domain.ErrInvalidCurrency},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newService(t)

			tx, err := s.Swap(ctx, tc.from, tc.to, tc.amount)
			require.ErrorIs(t, err, tc.wantErr)
			require.Empty(t, tx)

			require.Len(t, s.GetAllBalances(ctx), 1)
			requireBalance(t, s, "BTC", "1.25")
			require.Empty(t, s.QueryTransactions(ctx, domain.TransactionFilter{}, domain.DefaultSort))
		})
	}
}

func TestSwapRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	for _, amount := range []string{"0.5", "0.123456789", "1"} {
		before := s.GetBalance(ctx, "BTC")

		first, err := s.Swap(ctx, "BTC", "ETH", d(amount))
		require.NoError(t, err)

		_, err = s.Swap(ctx, "ETH", "BTC", first.CounterAmount.Decimal)
		require.NoError(t, err)

		diff := s.GetBalance(ctx, "BTC").Sub(before).Abs()
		require.True(t, diff.LessThan(d("0.000000000001")), "round trip of %s drifted by %s", amount, diff)
	}
}

func TestSwapReadsEachPriceOnce(t *testing.T) {
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oracle := NewMockOracle(ctrl)
	gomock.InOrder(
		oracle.EXPECT().PriceOf(gomock.Any(), gomock.Eq("BTC")).Times(1).Return(d("45000"), nil),
		oracle.EXPECT().PriceOf(gomock.Any(), gomock.Eq("ETH")).Times(1).Return(d("3200"), nil),
	)

	s, err := New(oracle, WithBalances(map[string]decimal.Decimal{"BTC": d("1.25")}))
	require.NoError(t, err)

	tx, err := s.Swap(ctx, "BTC", "ETH", d("0.5"))
	require.NoError(t, err)
	require.True(t, tx.CounterAmount.Decimal.Equal(d("7.03125")))
}

func TestSwapOracleNotConsultedOnInvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oracle := NewMockOracle(ctrl)
	oracle.EXPECT().PriceOf(gomock.Any(), gomock.Any()).Times(0)

	s, err := New(oracle)
	require.NoError(t, err)

	_, err = s.Swap(context.Background(), "BTC", "BTC", d("1"))
	require.ErrorIs(t, err, domain.ErrSameCurrency)
}

func TestDuplicateIDLeavesBalancesUntouched(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithIDGenerator(func() string { return "fixed" }))

	_, err := s.Receive(ctx, "BTC", d("1"), "")
	require.NoError(t, err)

	_, err = s.Swap(ctx, "BTC", "ETH", d("0.5"))
	require.ErrorIs(t, err, domain.ErrDuplicateTransaction)

	requireBalance(t, s, "BTC", "2.25")
	requireBalance(t, s, "ETH", "0")
	require.NotContains(t, s.GetAllBalances(ctx), "ETH")
}

func TestConcurrentSends(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	var (
		g         errgroup.Group
		succeeded atomic.Int32
		rejected  atomic.Int32
	)

	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := s.Send(ctx, "BTC", d("1.0"), "double tap")

			switch err {
			case nil:
				succeeded.Add(1)
			case domain.ErrInsufficientBalance:
				rejected.Add(1)
			default:
				return err
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), succeeded.Load())
	require.Equal(t, int32(1), rejected.Load())

	requireBalance(t, s, "BTC", "0.25")
	require.Len(t, s.QueryTransactions(ctx, domain.TransactionFilter{Kind: domain.KindSend}, domain.DefaultSort), 1)
}

func TestConcurrentMixedOperations(t *testing.T) {
	ctx := context.Background()

	s, err := New(newOracle(t), WithBalances(map[string]decimal.Decimal{"USD": d("50")}))
	require.NoError(t, err)

	var (
		g         errgroup.Group
		succeeded atomic.Int32
	)

	for i := 0; i < 100; i++ {
		g.Go(func() error {
			_, err := s.Send(ctx, "USD", d("1"), "")
			if err == nil {
				succeeded.Add(1)
				return nil
			}

			if err == domain.ErrInsufficientBalance {
				return nil
			}

			return err
		})

		g.Go(func() error {
			s.QueryTransactions(ctx, domain.TransactionFilter{Currency: "USD"}, domain.DefaultSort)
			s.GetAllBalances(ctx)
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, int32(50), succeeded.Load())
	requireBalance(t, s, "USD", "0")
}

func TestQueryTransactions(t *testing.T) {
	ctx := context.Background()

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newService(t, WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	r, err := s.Receive(ctx, "USD", d("100"), "")
	require.NoError(t, err)
	sw, err := s.Swap(ctx, "BTC", "ETH", d("0.5"))
	require.NoError(t, err)
	sd, err := s.Send(ctx, "ETH", d("1"), "")
	require.NoError(t, err)

	got := s.QueryTransactions(ctx, domain.TransactionFilter{}, domain.DefaultSort)
	require.Equal(t, []string{sd.ID, sw.ID, r.ID}, []string{got[0].ID, got[1].ID, got[2].ID})

	got = s.QueryTransactions(ctx, domain.TransactionFilter{Currency: "ETH"}, domain.SortSpec{Field: domain.SortByAmount, Order: domain.OrderAsc})
	require.Len(t, got, 2)
	require.Equal(t, sw.ID, got[0].ID)
	require.Equal(t, sd.ID, got[1].ID)

	fetched, err := s.GetTransaction(ctx, sw.ID)
	require.NoError(t, err)
	require.Equal(t, sw, fetched)
}

func TestUpdateStatusAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	tx, err := s.Receive(ctx, "BTC", d("1"), "")
	require.NoError(t, err)

	_, err = s.UpdateStatus(ctx, tx.ID, domain.StatusFailed)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.UpdateStatus(ctx, "missing", domain.StatusFailed)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	require.NoError(t, s.RemoveTransaction(ctx, tx.ID))
	require.ErrorIs(t, s.RemoveTransaction(ctx, tx.ID), domain.ErrTransactionNotFound)

	// removal is administrative and leaves balances alone
	requireBalance(t, s, "BTC", "2.25")
	require.Empty(t, s.QueryTransactions(ctx, domain.TransactionFilter{}, domain.DefaultSort))
}

func TestNewRejectsNegativeSeed(t *testing.T) {
	_, err := New(newOracle(t), WithBalances(map[string]decimal.Decimal{"BTC": d("-1")}))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}
