// Package trainer runs the offline training job that produces the revenue
// model artifact.
package trainer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"bilancio/internal/forecast"
)

// Config is the trainer's TOML file layout.
type Config struct {
	ModelPath string `toml:"model_path"`
	// SQLiteDBPath adds the stored accounts to the corpus when set.
	SQLiteDBPath string `toml:"sqlite_db_path"`
	// UseSynthetic adds generated seasonal series to the corpus.
	UseSynthetic bool                     `toml:"use_synthetic"`
	Train        forecast.TrainConfig     `toml:"train"`
	Synthetic    forecast.SyntheticConfig `toml:"synthetic"`
}

func DefaultConfig() Config {
	return Config{
		ModelPath:    forecast.DefaultModelPath,
		UseSynthetic: true,
		Train:        forecast.DefaultTrainConfig(),
		Synthetic:    forecast.DefaultSyntheticConfig(),
	}
}

// LoadConfig reads path over the defaults, so a file only needs the keys it
// changes. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return cfg, nil
}

// WriteConfig encodes cfg as TOML.
func WriteConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks the job settings and the hyperparameters.
func (c Config) Validate() error {
	var errs []error
	if c.ModelPath == "" {
		errs = append(errs, errors.New("model_path must be set"))
	}
	if !c.UseSynthetic && c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("no corpus: set sqlite_db_path or use_synthetic"))
	}
	if c.UseSynthetic && c.Synthetic.Accounts < 1 {
		errs = append(errs, fmt.Errorf("synthetic.accounts must be positive, got %d", c.Synthetic.Accounts))
	}
	if err := c.Train.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
