package forecast

import (
	"math"
	"math/rand/v2"
	"time"

	"bilancio/internal/core"
)

// SyntheticConfig shapes the generated training corpus.
type SyntheticConfig struct {
	Accounts  int     `toml:"accounts"`
	Base      float64 `toml:"base"`
	Growth    float64 `toml:"growth"`
	Amplitude float64 `toml:"amplitude"`
	Noise     float64 `toml:"noise"`
	Seed      uint64  `toml:"seed"`
}

func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Accounts:  40,
		Base:      3000,
		Growth:    0.02,
		Amplitude: 0.15,
		Noise:     0.05,
		Seed:      7,
	}
}

// Synthetic generates one year of seasonal revenue per account, with expenses
// tracking a share of revenue. The same config always yields the same corpus.
func Synthetic(cfg SyntheticConfig) []core.MonthlySeries {
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5deece66d))
	out := make([]core.MonthlySeries, 0, cfg.Accounts)
	for a := 0; a < cfg.Accounts; a++ {
		base := cfg.Base * (0.7 + 0.6*r.Float64())
		phase := r.Float64() * 2 * math.Pi
		ratio := 0.4 + 0.4*r.Float64()

		s := make(core.MonthlySeries, 12)
		for m := range s {
			trend := base * (1 + cfg.Growth*float64(m))
			season := 1 + cfg.Amplitude*math.Sin(2*math.Pi*float64(m)/12+phase)
			rev := trend * season * (1 + cfg.Noise*r.NormFloat64())
			exp := rev * ratio * (1 + cfg.Noise*r.NormFloat64())
			s[m] = core.MonthlyPoint{
				Month:    time.Month(m + 1),
				Revenue:  math.Round(math.Max(rev, 0)*100) / 100,
				Expenses: math.Round(math.Max(exp, 0)*100) / 100,
			}
		}
		out = append(out, s)
	}
	return out
}
