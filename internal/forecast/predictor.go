package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/floats"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

// perturbation bounds the noise added to months without data, as a fraction
// of the series' largest revenue.
const perturbation = 0.10

// Predictor serves next-year revenue predictions from a persisted model. The
// model is loaded on first use; concurrent first calls share one load. A
// failed load is not remembered, so a model trained later is picked up.
type Predictor struct {
	path   string
	loader func(string) (*Model, error)
	random func() float64

	group singleflight.Group
	mu    sync.RWMutex
	model *Model
}

type PredictorOption func(*Predictor)

// WithLoader replaces LoadModel, mainly for tests.
func WithLoader(fn func(string) (*Model, error)) PredictorOption {
	return func(p *Predictor) { p.loader = fn }
}

// WithRandom sets the uniform [0,1) source used for empty-month perturbation.
func WithRandom(fn func() float64) PredictorOption {
	return func(p *Predictor) { p.random = fn }
}

func NewPredictor(path string, opts ...PredictorOption) *Predictor {
	p := &Predictor{
		path:   path,
		loader: LoadModel,
		random: rand.Float64,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Model returns the loaded model, loading it if needed.
func (p *Predictor) Model(ctx context.Context) (*Model, error) {
	p.mu.RLock()
	m := p.model
	p.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	v, err, _ := p.group.Do(p.path, func() (any, error) {
		p.mu.RLock()
		m := p.model
		p.mu.RUnlock()
		if m != nil {
			return m, nil
		}

		m, err := p.loader(p.path)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load forecast model",
				applog.FieldModelPath, p.path,
				applog.FieldError, err)
			return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
		}
		p.mu.Lock()
		p.model = m
		p.mu.Unlock()
		slog.InfoContext(ctx, "Forecast model loaded",
			applog.FieldModelPath, p.path,
			"window_length", m.WindowLength,
			"trained_at", m.TrainedAt)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// PredictNextYear returns one revenue prediction per calendar month. The
// series is zero-filled to twelve months and scaled with the model's training
// params; month k is predicted from the window ending at k. Months without data
// get a random offset within ±10% of the largest revenue. Results are never
// negative.
func (p *Predictor) PredictNextYear(ctx context.Context, series core.MonthlySeries) ([12]float64, error) {
	var out [12]float64
	if err := series.Validate(); err != nil {
		return out, err
	}
	m, err := p.Model(ctx)
	if err != nil {
		return out, err
	}

	filled := series.Filled()
	revenues := filled.Revenues()
	expenses := filled.ExpensesColumn()
	scaledRev := m.Revenue.ScaleAll(revenues)
	scaledExp := m.Expenses.ScaleAll(expenses)
	maxRevenue := floats.Max(revenues)

	for k := range out {
		w := windowEnding(scaledRev, scaledExp, k, m.WindowLength)
		v := m.Revenue.Unscale(m.Network.Predict(w))
		if !filled[k].HasData() {
			v += (2*p.random() - 1) * perturbation * maxRevenue
		}
		if !finite(v) || v < 0 {
			v = 0
		}
		out[k] = v
	}
	return out, nil
}
