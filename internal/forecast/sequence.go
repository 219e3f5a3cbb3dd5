package forecast

import (
	"fmt"

	"bilancio/internal/core"
)

// Pair is one time step fed to the network: revenue then expenses.
type Pair [2]float64

// Example is a training window and the revenue that followed it.
type Example struct {
	Window []Pair
	Target float64
}

// BuildSequences slides a window of length l over the two columns. Example i
// covers pairs [i, i+l) and targets revenues[i+l], so a series of length n
// yields n-l examples.
func BuildSequences(revenues, expenses []float64, l int) ([]Example, error) {
	if l < 1 {
		return nil, fmt.Errorf("%w: window length %d", core.ErrInvalidInput, l)
	}
	if len(revenues) != len(expenses) {
		return nil, fmt.Errorf("%w: %d revenues for %d expenses", core.ErrInvalidInput, len(revenues), len(expenses))
	}
	n := len(revenues)
	if n <= l {
		return nil, fmt.Errorf("%w: %d points for window length %d", core.ErrInsufficientData, n, l)
	}

	out := make([]Example, 0, n-l)
	for i := 0; i < n-l; i++ {
		w := make([]Pair, l)
		for j := range w {
			w[j] = Pair{revenues[i+j], expenses[i+j]}
		}
		out = append(out, Example{Window: w, Target: revenues[i+l]})
	}
	return out, nil
}

// windowEnding returns the l pairs ending at index end, repeating the first
// pair when the series is too short to fill the window.
func windowEnding(revenues, expenses []float64, end, l int) []Pair {
	w := make([]Pair, l)
	for j := range w {
		idx := end - (l - 1) + j
		if idx < 0 {
			idx = 0
		}
		w[j] = Pair{revenues[idx], expenses[idx]}
	}
	return w
}
