// Package ledgerdelivery manages delivery layer of the ledger.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/currencypkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Receive(ctx context.Context, currency string, amount decimal.Decimal, description string) (domain.Transaction, error)
	Send(ctx context.Context, currency string, amount decimal.Decimal, description string) (domain.Transaction, error)
	Swap(ctx context.Context, from, to string, amount decimal.Decimal) (domain.Transaction, error)
	GetBalance(ctx context.Context, currency string) decimal.Decimal
	GetAllBalances(ctx context.Context) map[string]decimal.Decimal
	QueryTransactions(ctx context.Context, f domain.TransactionFilter, spec domain.SortSpec) []domain.Transaction
	UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Transaction, error)
	RemoveTransaction(ctx context.Context, id string) error
}

// PriceLister provides the configured prices.
type PriceLister interface {
	Prices() []domain.Price
}

// Handler facilitates ledger delivery layer logic.
//
// It also keeps the balance visibility flag, which is display state only and
// never reaches the service.
type Handler struct {
	service Service
	prices  PriceLister
	hidden  atomic.Bool
}

// NewHandler returns ledger handler.
func NewHandler(ls Service, pl PriceLister) *Handler {
	return &Handler{
		service: ls,
		prices:  pl,
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrSameCurrency),
		errors.Is(err, domain.ErrUnknownCurrency),
		errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

func respondError(gctx *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Send()
		gctx.JSON(status, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(status, web.Error(err))
}

type movementRequest struct {
	Currency    string `json:"currency" binding:"required,currency"`
	Amount      string `json:"amount" binding:"required,positive"`
	Description string `json:"description" binding:"max=256"`
}

type transactionData struct {
	Transaction domain.Transaction `json:"transaction"`
}

// Receive handles http request to credit a currency.
func (h *Handler) Receive(gctx *gin.Context) {
	h.movement(gctx, h.service.Receive)
}

// Send handles http request to debit a currency.
func (h *Handler) Send(gctx *gin.Context) {
	h.movement(gctx, h.service.Send)
}

type movementFunc func(ctx context.Context, currency string, amount decimal.Decimal, description string) (domain.Transaction, error)

func (h *Handler) movement(gctx *gin.Context, move movementFunc) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req movementRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	tx, err := move(ctx, req.Currency, amount, req.Description)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(transactionData{tx}))
}

type swapRequest struct {
	From   string `json:"from" binding:"required,currency"`
	To     string `json:"to" binding:"required,currency"`
	Amount string `json:"amount" binding:"required,positive"`
}

// Swap handles http request to convert between two currencies.
func (h *Handler) Swap(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req swapRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	tx, err := h.service.Swap(ctx, req.From, req.To, amount)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(transactionData{tx}))
}

type balanceView struct {
	Currency string `json:"currency"`
	Quantity string `json:"quantity"`
	Display  string `json:"display"`
}

func (h *Handler) view(currency string, quantity decimal.Decimal) balanceView {
	if h.hidden.Load() {
		return balanceView{Currency: currency, Quantity: currencypkg.Mask, Display: currencypkg.Mask}
	}

	return balanceView{
		Currency: currency,
		Quantity: quantity.String(),
		Display:  currencypkg.Format(currency, quantity),
	}
}

type getBalanceRequest struct {
	Currency string `uri:"currency" binding:"required,currency"`
}

type balanceData struct {
	Balance balanceView `json:"balance"`
}

// GetBalance handles http request to get the balance of one currency.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getBalanceRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	q := h.service.GetBalance(ctx, req.Currency)

	gctx.JSON(http.StatusOK, web.Data(balanceData{h.view(req.Currency, q)}))
}

type balancesData struct {
	Hidden   bool          `json:"hidden"`
	Balances []balanceView `json:"balances"`
}

// ListBalances handles http request to list all balances.
func (h *Handler) ListBalances(gctx *gin.Context) {
	all := h.service.GetAllBalances(gctx.Request.Context())

	codes := make([]string, 0, len(all))
	for code := range all {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	items := make([]balanceView, 0, len(codes))
	for _, code := range codes {
		items = append(items, h.view(code, all[code]))
	}

	gctx.JSON(http.StatusOK, web.Data(balancesData{Hidden: h.hidden.Load(), Balances: items}))
}

type listTransactionsRequest struct {
	Kind     string `form:"kind" binding:"omitempty,oneof=send receive swap"`
	Status   string `form:"status" binding:"omitempty,oneof=pending completed failed"`
	Currency string `form:"currency" binding:"omitempty,currency"`
	Sort     string `form:"sort" binding:"omitempty,oneof=date amount kind"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
}

type transactionsData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// ListTransactions handles http request to list filtered and sorted transactions.
func (h *Handler) ListTransactions(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listTransactionsRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	f, spec, err := req.parse()
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	txs := h.service.QueryTransactions(ctx, f, spec)

	gctx.JSON(http.StatusOK, web.Data(transactionsData{txs}))
}

func (r listTransactionsRequest) parse() (domain.TransactionFilter, domain.SortSpec, error) {
	var (
		f    domain.TransactionFilter
		spec domain.SortSpec
		err  error
	)

	if r.Kind != "" {
		if f.Kind, err = domain.ParseKind(r.Kind); err != nil {
			return f, spec, err
		}
	}

	if r.Status != "" {
		if f.Status, err = domain.ParseStatus(r.Status); err != nil {
			return f, spec, err
		}
	}

	f.Currency = r.Currency

	if spec.Field, err = domain.ParseSortField(r.Sort); err != nil {
		return f, spec, err
	}

	if spec.Order, err = domain.ParseSortOrder(r.Order); err != nil {
		return f, spec, err
	}

	return f, spec, nil
}

type transactionURI struct {
	ID string `uri:"id" binding:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=completed failed"`
}

// UpdateStatus handles http request to settle a pending transaction.
func (h *Handler) UpdateStatus(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri transactionURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	var req updateStatusRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	tx, err := h.service.UpdateStatus(ctx, uri.ID, domain.Status(req.Status))
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(transactionData{tx}))
}

// RemoveTransaction handles http request to delete a transaction from the log.
func (h *Handler) RemoveTransaction(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri transactionURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	if err := h.service.RemoveTransaction(ctx, uri.ID); err != nil {
		respondError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}

type pricesData struct {
	Prices []domain.Price `json:"prices"`
}

// ListPrices handles http request to list the configured prices.
func (h *Handler) ListPrices(gctx *gin.Context) {
	gctx.JSON(http.StatusOK, web.Data(pricesData{h.prices.Prices()}))
}

type visibilityData struct {
	Hidden bool `json:"hidden"`
}

// ToggleVisibility flips whether balances are masked in responses.
func (h *Handler) ToggleVisibility(gctx *gin.Context) {
	for {
		old := h.hidden.Load()
		if h.hidden.CompareAndSwap(old, !old) {
			gctx.JSON(http.StatusOK, web.Data(visibilityData{!old}))
			return
		}
	}
}
