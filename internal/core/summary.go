package core

import (
	"fmt"
	"math"
	"time"
)

// MonthlyPoint is one month of a forecasting series, in currency units.
type MonthlyPoint struct {
	Month    time.Month
	Revenue  float64
	Expenses float64
}

// MonthlySeries is a read-only view of an account's buckets ordered by month.
type MonthlySeries []MonthlyPoint

// HasData reports whether the point carries any recorded activity.
func (p MonthlyPoint) HasData() bool {
	return p.Revenue != 0 || p.Expenses != 0
}

// Validate rejects out-of-range or repeated months and non-finite figures.
func (s MonthlySeries) Validate() error {
	seen := make(map[time.Month]struct{}, len(s))
	for _, p := range s {
		if !ValidMonth(p.Month) {
			return fmt.Errorf("%w: %d", ErrInvalidMonth, p.Month)
		}
		if _, dup := seen[p.Month]; dup {
			return fmt.Errorf("%w: duplicate month %s", ErrInvalidInput, p.Month)
		}
		seen[p.Month] = struct{}{}
		for _, v := range []float64{p.Revenue, p.Expenses} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value in %s", ErrInvalidInput, p.Month)
			}
		}
	}
	return nil
}

// Filled extends a sparse series to all 12 calendar months, zero-filling the
// missing ones. The caller must have validated the series.
func (s MonthlySeries) Filled() MonthlySeries {
	out := make(MonthlySeries, 12)
	for i := range out {
		out[i] = MonthlyPoint{Month: time.Month(i + 1)}
	}
	for _, p := range s {
		out[p.Month-1] = p
	}
	return out
}

// Revenues returns the revenue column.
func (s MonthlySeries) Revenues() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Revenue
	}
	return out
}

// ExpensesColumn returns the expenses column.
func (s MonthlySeries) ExpensesColumn() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Expenses
	}
	return out
}

// Series derives the 12-month zero-filled series from the account buckets.
// Months without a bucket come back as empty points.
func (a *Account) Series() MonthlySeries {
	s := make(MonthlySeries, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		s = append(s, MonthlyPoint{
			Month:    b.Month,
			Revenue:  b.Revenue.Float(),
			Expenses: b.Expenses.Float(),
		})
	}
	return s.Filled()
}
