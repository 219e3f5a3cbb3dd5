package trainer

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/forecast"
	applog "bilancio/internal/log"
)

// HistorySource yields the recorded monthly series of stored accounts.
type HistorySource interface {
	History(ctx context.Context) ([]core.MonthlySeries, error)
}

// Report summarizes a finished run.
type Report struct {
	ModelPath string
	Recorded  int
	Generated int
	Result    *forecast.TrainResult
}

// Run assembles the corpus, trains and writes the artifact. history may be
// nil when no database is configured.
func Run(ctx context.Context, cfg Config, history HistorySource) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rep := &Report{ModelPath: cfg.ModelPath}
	var corpus []core.MonthlySeries
	if history != nil {
		recorded, err := history.History(ctx)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		rep.Recorded = len(recorded)
		corpus = append(corpus, recorded...)
	}
	if cfg.UseSynthetic {
		generated := forecast.Synthetic(cfg.Synthetic)
		rep.Generated = len(generated)
		corpus = append(corpus, generated...)
	}
	slog.InfoContext(ctx, "Training corpus assembled",
		applog.FieldComponent, applog.ComponentTrainer,
		"recorded", rep.Recorded,
		"generated", rep.Generated)

	res, err := forecast.Train(ctx, corpus, cfg.Train)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if err := forecast.SaveModel(cfg.ModelPath, res.Model); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	rep.Result = res

	slog.InfoContext(ctx, "Model saved",
		applog.FieldComponent, applog.ComponentTrainer,
		applog.FieldModelPath, cfg.ModelPath,
		applog.FieldEpoch, res.BestEpoch)
	return rep, nil
}
