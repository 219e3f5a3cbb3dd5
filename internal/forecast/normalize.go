// Package forecast turns monthly revenue series into predictions: a small
// recurrent network trained offline and a least-squares trend line.
package forecast

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Params holds the min/max pair a series was scaled with. The pair fitted at
// training time is stored in the model artifact and reused for inference.
type Params struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FitParams returns the min/max of values. An empty slice yields the zero pair.
func FitParams(values ...[]float64) Params {
	var p Params
	first := true
	for _, vs := range values {
		if len(vs) == 0 {
			continue
		}
		lo, hi := floats.Min(vs), floats.Max(vs)
		if first || lo < p.Min {
			p.Min = lo
		}
		if first || hi > p.Max {
			p.Max = hi
		}
		first = false
	}
	return p
}

func (p Params) degenerate() bool {
	return p.Max == p.Min
}

// Scale maps v into the fitted range. A degenerate pair maps everything to 0.
func (p Params) Scale(v float64) float64 {
	if p.degenerate() {
		return 0
	}
	return (v - p.Min) / (p.Max - p.Min)
}

// Unscale is the inverse of Scale. A degenerate pair maps everything to Min.
func (p Params) Unscale(v float64) float64 {
	if p.degenerate() {
		return p.Min
	}
	return v*(p.Max-p.Min) + p.Min
}

// Normalize min/max-scales values into [0, 1] and returns the params used.
// When every value is equal the output is all zeros.
func Normalize(values []float64) ([]float64, Params) {
	p := FitParams(values)
	return p.ScaleAll(values), p
}

// Denormalize maps scaled values back with p.
func Denormalize(scaled []float64, p Params) []float64 {
	out := make([]float64, len(scaled))
	for i, v := range scaled {
		out[i] = p.Unscale(v)
	}
	return out
}

func (p Params) ScaleAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = p.Scale(v)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
