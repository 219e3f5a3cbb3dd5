package forecast

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"bilancio/internal/core"
)

// PredictTrend fits an ordinary least-squares line through (month, revenue)
// of the supplied points and evaluates it at the horizon months following the
// last observed one. Month indices keep counting past December.
func PredictTrend(series core.MonthlySeries, horizon int) ([]float64, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon %d", core.ErrInvalidInput, horizon)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if len(series) < 2 {
		return nil, fmt.Errorf("%w: trend needs at least 2 points, got %d", core.ErrInsufficientData, len(series))
	}

	points := slices.Clone(series)
	slices.SortFunc(points, func(a, b core.MonthlyPoint) int { return int(a.Month) - int(b.Month) })

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.Month)
		ys[i] = p.Revenue
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	last := xs[len(xs)-1]
	out := make([]float64, horizon)
	for i := range out {
		out[i] = alpha + beta*(last+float64(i+1))
	}
	return out, nil
}
