// Package http exposes the ledger and the forecasts as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/forecast"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
)

// Ledger is the write and read surface of the ledger service.
type Ledger interface {
	CreateAccount(ctx context.Context, id string, initial core.Money) (*core.Account, error)
	Snapshot(ctx context.Context, id string) (*core.Account, error)
	AddTransaction(ctx context.Context, accountID string, in ledger.TransactionInput) (core.Transaction, error)
	EditTransaction(ctx context.Context, accountID string, txID int64, in ledger.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, accountID string, txID int64) error
	EditMonthlyData(ctx context.Context, accountID string, month time.Month, revenue, expenses core.Money) (*core.Account, error)
}

// Forecaster serves cached forecasts for stored accounts.
type Forecaster interface {
	Forecast(ctx context.Context, accountID string, horizon int) (forecast.Result, error)
	Invalidate(accountID string)
}

// ModelProbe reports whether the forecasting model can be loaded.
type ModelProbe interface {
	Model(ctx context.Context) (*forecast.Model, error)
}

// Deps are the services the API is built on. Predictor may also implement
// ModelProbe, in which case /readyz reports the model state.
type Deps struct {
	Ledger    Ledger
	Forecasts Forecaster
	Predictor forecast.YearPredictor
	Logger    *applog.Logger
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	ledger    Ledger
	forecasts Forecaster
	predictor forecast.YearPredictor
	logger    *applog.Logger

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	started time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	clientIP := security.NewClientIP()

	s := &Server{
		ledger:    deps.Ledger,
		forecasts: deps.Forecasts,
		predictor: deps.Predictor,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(deps.RateLimit),
		tracer:    trace.NewMiddleware(logger, clientIP.Extract),
		started:   time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("POST /accounts/{id}/transactions", s.handleAddTransaction)
	mux.HandleFunc("PUT /accounts/{id}/transactions/{txID}", s.handleEditTransaction)
	mux.HandleFunc("DELETE /accounts/{id}/transactions/{txID}", s.handleDeleteTransaction)
	mux.HandleFunc("PUT /accounts/{id}/months/{month}", s.handleEditMonth)

	mux.HandleFunc("GET /accounts/{id}/forecast", s.handleAccountForecast)
	mux.HandleFunc("POST /forecast/trend", s.handleTrend)
	mux.HandleFunc("POST /forecast/model", s.handleModel)

	var h http.Handler = mux
	h = s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
	})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
