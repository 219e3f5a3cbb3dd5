package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

// AccountSource resolves an account snapshot.
type AccountSource interface {
	Snapshot(ctx context.Context, id string) (*core.Account, error)
}

// YearPredictor produces the model-based curve.
type YearPredictor interface {
	PredictNextYear(ctx context.Context, series core.MonthlySeries) ([12]float64, error)
}

// Result carries both forecast curves for an account. They are independent
// estimates and are never substituted for one another. When the account has
// too few active months for a trend, Trend is empty and TrendError says why.
type Result struct {
	Model      [12]float64 `json:"model"`
	Trend      []float64   `json:"trend"`
	TrendError string      `json:"trend_error,omitempty"`
}

// Service combines the model predictor and the trend line for stored accounts.
type Service struct {
	accounts  AccountSource
	predictor YearPredictor
	cache     cache.Cache[Result]
}

func NewService(accounts AccountSource, predictor YearPredictor, c cache.Cache[Result]) *Service {
	return &Service{accounts: accounts, predictor: predictor, cache: c}
}

// Forecast returns the model and trend curves for accountID. Results are
// cached per account revision, so any ledger write invalidates them.
func (s *Service) Forecast(ctx context.Context, accountID string, horizon int) (Result, error) {
	if horizon < 1 {
		return Result{}, fmt.Errorf("%w: horizon %d", core.ErrInvalidInput, horizon)
	}
	a, err := s.accounts.Snapshot(ctx, accountID)
	if err != nil {
		return Result{}, err
	}

	key := fmt.Sprintf("%s:%d:%d", a.ID, a.Revision, horizon)
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			return r, nil
		}
	}

	model, err := s.predictor.PredictNextYear(ctx, a.Series())
	if err != nil {
		return Result{}, fmt.Errorf("model forecast for %s: %w", accountID, err)
	}
	r := Result{Model: model}
	trend, err := PredictTrend(activeSeries(a), horizon)
	switch {
	case errors.Is(err, core.ErrInsufficientData):
		r.TrendError = err.Error()
	case err != nil:
		return Result{}, fmt.Errorf("trend forecast for %s: %w", accountID, err)
	default:
		r.Trend = trend
	}

	if s.cache != nil {
		s.cache.Set(key, r)
	}
	slog.InfoContext(ctx, "Forecast computed",
		applog.FieldAccountID, accountID,
		applog.FieldRevision, a.Revision,
		applog.FieldHorizon, horizon)
	return r, nil
}

// Invalidate drops every cached result for accountID.
func (s *Service) Invalidate(accountID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(accountID + ":")
	}
}

// activeSeries keeps the months that carry activity. Seeded empty buckets are
// not observations and would drag the trend towards zero.
func activeSeries(a *core.Account) core.MonthlySeries {
	var s core.MonthlySeries
	for _, p := range a.Series() {
		if p.HasData() {
			s = append(s, p)
		}
	}
	return s
}
