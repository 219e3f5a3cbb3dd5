package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

// TrainConfig holds the trainer hyperparameters.
type TrainConfig struct {
	WindowLength    int     `toml:"window_length"`
	Units1          int     `toml:"units1"`
	Units2          int     `toml:"units2"`
	MaxEpochs       int     `toml:"max_epochs"`
	Patience        int     `toml:"patience"`
	BatchSize       int     `toml:"batch_size"`
	LearningRate    float64 `toml:"learning_rate"`
	ValidationSplit float64 `toml:"validation_split"`
	Seed            uint64  `toml:"seed"`
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		WindowLength:    3,
		Units1:          50,
		Units2:          30,
		MaxEpochs:       500,
		Patience:        20,
		BatchSize:       16,
		LearningRate:    0.001,
		ValidationSplit: 0.2,
		Seed:            42,
	}
}

// Validate returns every configuration problem at once.
func (c TrainConfig) Validate() error {
	var errs []error
	if c.WindowLength < 1 || c.WindowLength > 11 {
		errs = append(errs, fmt.Errorf("window_length must be between 1 and 11, got %d", c.WindowLength))
	}
	if c.Units1 < 1 || c.Units2 < 1 {
		errs = append(errs, fmt.Errorf("units must be positive, got %d/%d", c.Units1, c.Units2))
	}
	if c.MaxEpochs < 1 {
		errs = append(errs, fmt.Errorf("max_epochs must be positive, got %d", c.MaxEpochs))
	}
	if c.Patience < 1 {
		errs = append(errs, fmt.Errorf("patience must be positive, got %d", c.Patience))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.LearningRate <= 0 || !finite(c.LearningRate) {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %v", c.LearningRate))
	}
	if c.ValidationSplit < 0 || c.ValidationSplit >= 1 {
		errs = append(errs, fmt.Errorf("validation_split must be in [0, 1), got %v", c.ValidationSplit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// TrainResult is the outcome of a training run.
type TrainResult struct {
	Model     *Model
	Metrics   Metrics
	Epochs    int
	BestEpoch int
	Train     int
	Validate  int
}

// Train fits a model on the monthly series of corpus. Revenue and expenses are
// scaled with min/max params fitted over the whole corpus; those params travel
// with the model so prediction reuses them. Series too short for the window
// are skipped; a corpus with no usable example fails with ErrInsufficientData.
func Train(ctx context.Context, corpus []core.MonthlySeries, cfg TrainConfig) (*TrainResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var revs, exps [][]float64
	for i, s := range corpus {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		f := s.Filled()
		revs = append(revs, f.Revenues())
		exps = append(exps, f.ExpensesColumn())
	}
	revParams := FitParams(revs...)
	expParams := FitParams(exps...)

	var examples []Example
	for i := range revs {
		ex, err := BuildSequences(revParams.ScaleAll(revs[i]), expParams.ScaleAll(exps[i]), cfg.WindowLength)
		if errors.Is(err, core.ErrInsufficientData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		examples = append(examples, ex...)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: no training examples", core.ErrInsufficientData)
	}

	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	r.Shuffle(len(examples), func(i, j int) { examples[i], examples[j] = examples[j], examples[i] })

	nVal := int(math.Round(float64(len(examples)) * cfg.ValidationSplit))
	if cfg.ValidationSplit > 0 && nVal == 0 && len(examples) > 1 {
		nVal = 1
	}
	if nVal >= len(examples) {
		nVal = len(examples) - 1
	}
	train, val := examples[:len(examples)-nVal], examples[len(examples)-nVal:]
	monitor := val
	if len(monitor) == 0 {
		monitor = train
	}

	net := NewNetwork(cfg.Units1, cfg.Units2, cfg.Seed)
	grads := net.zeroLike()
	opt := newAdam(cfg.LearningRate, net.params())

	best := net.clone()
	bestLoss := math.Inf(1)
	bestEpoch, wait, epoch := 0, 0, 0
	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}

	for epoch = 1; epoch <= cfg.MaxEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training interrupted at epoch %d: %w", epoch, err)
		}
		r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var trainLoss float64
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, len(order))
			grads.reset()
			scale := 1 / float64(end-start)
			for _, idx := range order[start:end] {
				trainLoss += net.accumulate(train[idx], scale, grads)
			}
			opt.step(net.params(), grads.params())
		}
		trainLoss /= float64(len(train))

		valLoss := meanSquaredError(net, monitor)
		if !finite(valLoss) {
			slog.WarnContext(ctx, "Training diverged, keeping best weights",
				applog.FieldEpoch, epoch)
			break
		}
		if valLoss < bestLoss {
			bestLoss, bestEpoch, wait = valLoss, epoch, 0
			best = net.clone()
		} else {
			wait++
		}

		if epoch%25 == 0 || epoch == 1 {
			slog.DebugContext(ctx, "Training progress",
				applog.FieldEpoch, epoch,
				"train_loss", trainLoss,
				"val_loss", valLoss)
		}
		if wait >= cfg.Patience {
			slog.InfoContext(ctx, "Early stopping",
				applog.FieldEpoch, epoch,
				"best_epoch", bestEpoch)
			break
		}
	}
	if epoch > cfg.MaxEpochs {
		epoch = cfg.MaxEpochs
	}

	model := &Model{
		Version:      artifactVersion,
		WindowLength: cfg.WindowLength,
		Revenue:      revParams,
		Expenses:     expParams,
		Network:      best,
		TrainedAt:    time.Now().UTC(),
	}

	predicted := make([]float64, len(monitor))
	actual := make([]float64, len(monitor))
	for i, ex := range monitor {
		predicted[i] = revParams.Unscale(best.Predict(ex.Window))
		actual[i] = revParams.Unscale(ex.Target)
	}
	metrics := Evaluate(predicted, actual)
	slog.InfoContext(ctx, "Training finished",
		applog.FieldEpoch, epoch,
		"best_epoch", bestEpoch,
		"samples", len(examples),
		"mse", metrics.MSE,
		"mae", metrics.MAE,
		"pearson", metrics.Pearson,
		"r2", metrics.R2)

	return &TrainResult{
		Model:     model,
		Metrics:   metrics,
		Epochs:    epoch,
		BestEpoch: bestEpoch,
		Train:     len(train),
		Validate:  len(val),
	}, nil
}

func meanSquaredError(n *Network, examples []Example) float64 {
	var sum float64
	for _, ex := range examples {
		d := n.Predict(ex.Window) - ex.Target
		sum += d * d
	}
	return sum / float64(len(examples))
}
