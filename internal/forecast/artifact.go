package forecast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const artifactVersion = 1

// DefaultModelPath is where the trainer writes and the predictor reads the
// model unless configured otherwise.
const DefaultModelPath = "./data/model/revenue_model.json"

// Model is the persisted forecasting artifact: topology and weights plus the
// normalization params fitted at training time.
type Model struct {
	Version      int       `json:"version"`
	WindowLength int       `json:"window_length"`
	Revenue      Params    `json:"revenue_params"`
	Expenses     Params    `json:"expense_params"`
	Network      *Network  `json:"network"`
	TrainedAt    time.Time `json:"trained_at"`
}

func (m *Model) validate() error {
	if m.Version != artifactVersion {
		return fmt.Errorf("unsupported model version %d", m.Version)
	}
	if m.WindowLength < 1 {
		return fmt.Errorf("invalid window length %d", m.WindowLength)
	}
	for _, p := range []Params{m.Revenue, m.Expenses} {
		if !finite(p.Min) || !finite(p.Max) || p.Max < p.Min {
			return fmt.Errorf("invalid normalization params %+v", p)
		}
	}
	return m.Network.Validate()
}

// SaveModel writes m to path, creating parent directories. The file is
// replaced atomically.
func SaveModel(path string, m *Model) error {
	if err := m.validate(); err != nil {
		return fmt.Errorf("refusing to save model: %w", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install model: %w", err)
	}
	return nil
}

// LoadModel reads and validates a model artifact.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("corrupt model %s: %w", path, err)
	}
	return &m, nil
}
