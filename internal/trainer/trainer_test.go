package trainer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/forecast"
)

func quickConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "model", "revenue_model.json")
	cfg.Synthetic.Accounts = 4
	cfg.Train.Units1 = 4
	cfg.Train.Units2 = 3
	cfg.Train.MaxEpochs = 5
	cfg.Train.LearningRate = 0.01
	return cfg
}

type staticHistory struct {
	series []core.MonthlySeries
	err    error
}

func (h staticHistory) History(context.Context) ([]core.MonthlySeries, error) {
	return h.series, h.err
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(dir, "absent.toml"))
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Train != forecast.DefaultTrainConfig() || !cfg.UseSynthetic {
			t.Errorf("LoadConfig() = %+v", cfg)
		}
	})

	t.Run("partial file overrides", func(t *testing.T) {
		path := filepath.Join(dir, "partial.toml")
		body := "model_path = \"/tmp/m.json\"\n\n[train]\nunits1 = 8\nlearning_rate = 0.05\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.ModelPath != "/tmp/m.json" || cfg.Train.Units1 != 8 || cfg.Train.LearningRate != 0.05 {
			t.Errorf("LoadConfig() = %+v", cfg)
		}
		if cfg.Train.Units2 != 30 {
			t.Errorf("unset keys should keep defaults, units2 = %d", cfg.Train.Units2)
		}
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		path := filepath.Join(dir, "typo.toml")
		if err := os.WriteFile(path, []byte("[train]\nunits = 8\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "unknown config keys") {
			t.Errorf("LoadConfig() error = %v", err)
		}
	})

	t.Run("round trip through WriteConfig", func(t *testing.T) {
		var buf bytes.Buffer
		want := DefaultConfig()
		want.SQLiteDBPath = "./data/bilancio.db"
		if err := WriteConfig(&buf, want); err != nil {
			t.Fatalf("WriteConfig() error = %v", err)
		}
		path := filepath.Join(dir, "written.toml")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = ""
	cfg.UseSynthetic = false
	cfg.Train.BatchSize = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"model_path", "no corpus", "batch_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestRun(t *testing.T) {
	cfg := quickConfig(t)
	recorded := []core.MonthlySeries{{
		{Month: time.January, Revenue: 100}, {Month: time.February, Revenue: 110},
		{Month: time.March, Revenue: 130}, {Month: time.April, Revenue: 120},
		{Month: time.May, Revenue: 150},
	}}

	rep, err := Run(context.Background(), cfg, staticHistory{series: recorded})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Recorded != 1 || rep.Generated != 4 {
		t.Errorf("corpus %d recorded + %d generated", rep.Recorded, rep.Generated)
	}
	m, err := forecast.LoadModel(cfg.ModelPath)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if m.WindowLength != cfg.Train.WindowLength {
		t.Errorf("WindowLength = %d", m.WindowLength)
	}
}

func TestRunErrors(t *testing.T) {
	cfg := quickConfig(t)
	if _, err := Run(context.Background(), cfg, staticHistory{err: errors.New("db locked")}); err == nil {
		t.Error("expected history error")
	}

	cfg.UseSynthetic = false
	cfg.SQLiteDBPath = "unused.db"
	_, err := Run(context.Background(), cfg, staticHistory{})
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("empty corpus error = %v, want ErrInsufficientData", err)
	}
	if _, statErr := os.Stat(cfg.ModelPath); !os.IsNotExist(statErr) {
		t.Error("no artifact should be written on failure")
	}
}
