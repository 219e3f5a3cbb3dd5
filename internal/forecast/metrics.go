package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarises how well predictions track actual values. They are
// reported after training and never gate it.
type Metrics struct {
	Samples int     `json:"samples"`
	MSE     float64 `json:"mse"`
	MAE     float64 `json:"mae"`
	Pearson float64 `json:"pearson"`
	R2      float64 `json:"r2"`
}

// Evaluate compares predicted against actual. Undefined statistics, such as a
// correlation against a constant series, are reported as 0.
func Evaluate(predicted, actual []float64) Metrics {
	n := len(actual)
	if n == 0 || len(predicted) != n {
		return Metrics{}
	}
	m := Metrics{Samples: n}
	for i := range actual {
		d := predicted[i] - actual[i]
		m.MSE += d * d
		m.MAE += math.Abs(d)
	}
	m.MSE /= float64(n)
	m.MAE /= float64(n)

	if n > 1 {
		m.Pearson = orZero(stat.Correlation(predicted, actual, nil))
		m.R2 = orZero(stat.RSquaredFrom(predicted, actual, nil))
	}
	return m
}

func orZero(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return v
}
