// Package httpserver manages server creation and api routing.
package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/ledgerdelivery"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/priceoracle"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
)

// Server holds the ledger, handlers router and configuration.
type Server struct {
	Ledger *ledgerservice.Service
	Oracle *priceoracle.Static
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated ledger and routes. Extra options
// are applied to the ledger service after the configured ones.
func New(logger zerolog.Logger, config configpkg.Config, opts ...ledgerservice.Option) (*Server, error) {
	prices, err := configpkg.ParseAmounts(config.Prices)
	if err != nil {
		return nil, fmt.Errorf("cannot parse prices: %w", err)
	}

	if _, ok := prices[config.ReferenceCurrency]; !ok {
		prices[config.ReferenceCurrency] = decimal.NewFromInt(1)
	}

	oracle, err := priceoracle.New(config.ReferenceCurrency, prices)
	if err != nil {
		return nil, fmt.Errorf("cannot create price oracle: %w", err)
	}

	seeds, err := configpkg.ParseAmounts(config.SeedBalances)
	if err != nil {
		return nil, fmt.Errorf("cannot parse seed balances: %w", err)
	}

	ledgerOpts := []ledgerservice.Option{ledgerservice.WithBalances(seeds)}
	if config.StrictCurrencies {
		ledgerOpts = append(ledgerOpts, ledgerservice.WithStrictCurrencies())
	}

	ledger, err := ledgerservice.New(oracle, append(ledgerOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize ledger service: %w", err)
	}

	limiter, err := middleware.NewLimiter(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("cannot create rate limiter: %w", err)
	}

	if err := ledgerdelivery.RegisterValidators(); err != nil {
		return nil, err
	}

	ledgerHandler := ledgerdelivery.NewHandler(ledger, oracle)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.GET("/balances", ledgerHandler.ListBalances)
	engine.GET("/balances/:currency", ledgerHandler.GetBalance)
	engine.GET("/transactions", ledgerHandler.ListTransactions)
	engine.GET("/prices", ledgerHandler.ListPrices)
	engine.POST("/visibility/toggle", ledgerHandler.ToggleVisibility)

	limitedRoutes := engine.Group("/").Use(middleware.RateLimit(limiter))

	limitedRoutes.POST("/receive", ledgerHandler.Receive)
	limitedRoutes.POST("/send", ledgerHandler.Send)
	limitedRoutes.POST("/swap", ledgerHandler.Swap)
	limitedRoutes.PATCH("/transactions/:id", ledgerHandler.UpdateStatus)
	limitedRoutes.DELETE("/transactions/:id", ledgerHandler.RemoveTransaction)

	server := &Server{
		Ledger: ledger,
		Oracle: oracle,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
