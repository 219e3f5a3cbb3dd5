package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestPredictTrend(t *testing.T) {
	tests := []struct {
		name    string
		series  core.MonthlySeries
		horizon int
		want    []float64
	}{
		{
			name: "linear three points",
			series: core.MonthlySeries{
				{Month: time.January, Revenue: 100},
				{Month: time.February, Revenue: 120},
				{Month: time.March, Revenue: 140},
			},
			horizon: 1,
			want:    []float64{160},
		},
		{
			name: "unordered input",
			series: core.MonthlySeries{
				{Month: time.March, Revenue: 140},
				{Month: time.January, Revenue: 100},
				{Month: time.February, Revenue: 120},
			},
			horizon: 3,
			want:    []float64{160, 180, 200},
		},
		{
			name: "gap in months",
			series: core.MonthlySeries{
				{Month: time.February, Revenue: 50},
				{Month: time.June, Revenue: 90},
			},
			horizon: 2,
			want:    []float64{100, 110},
		},
		{
			name: "flat",
			series: core.MonthlySeries{
				{Month: time.October, Revenue: 70},
				{Month: time.November, Revenue: 70},
				{Month: time.December, Revenue: 70},
			},
			horizon: 2,
			want:    []float64{70, 70},
		},
		{
			name: "least squares",
			series: core.MonthlySeries{
				{Month: time.January, Revenue: 1},
				{Month: time.February, Revenue: 3},
				{Month: time.March, Revenue: 2},
			},
			horizon: 1,
			want:    []float64{3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PredictTrend(tt.series, tt.horizon)
			if err != nil {
				t.Fatalf("PredictTrend() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPredictTrendErrors(t *testing.T) {
	two := core.MonthlySeries{{Month: 1, Revenue: 1}, {Month: 2, Revenue: 2}}
	tests := []struct {
		name    string
		series  core.MonthlySeries
		horizon int
		want    error
	}{
		{"empty", nil, 1, core.ErrInsufficientData},
		{"single point", core.MonthlySeries{{Month: 4, Revenue: 10}}, 1, core.ErrInsufficientData},
		{"zero horizon", two, 0, core.ErrInvalidInput},
		{"duplicate month", core.MonthlySeries{{Month: 1, Revenue: 1}, {Month: 1, Revenue: 2}}, 1, core.ErrInvalidInput},
		{"bad month", core.MonthlySeries{{Month: 0, Revenue: 1}, {Month: 2, Revenue: 2}}, 1, core.ErrInvalidInput},
		{"nan", core.MonthlySeries{{Month: 1, Revenue: math.NaN()}, {Month: 2, Revenue: 2}}, 1, core.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PredictTrend(tt.series, tt.horizon); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
