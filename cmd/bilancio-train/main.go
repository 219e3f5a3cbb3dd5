package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
	"bilancio/internal/trainer"
)

var (
	flagConfig    string
	flagModelPath string
	flagDBPath    string
	flagNoSynth   bool
	flagSeed      uint64
)

var rootCmd = &cobra.Command{
	Use:   "bilancio-train",
	Short: "Train the revenue forecasting model",
	Long:  "Train the LSTM revenue model on stored account history and generated seasonal series, then write the model artifact.",
	RunE:  runTrain,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective trainer configuration as TOML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := effectiveConfig(cmd)
		if err != nil {
			return err
		}
		return trainer.WriteConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "bilancio-train.toml", "TOML configuration file")
	rootCmd.PersistentFlags().StringVarP(&flagModelPath, "out", "o", "", "Model artifact path (overrides model_path)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database with account history (overrides sqlite_db_path)")
	rootCmd.PersistentFlags().BoolVar(&flagNoSynth, "no-synthetic", false, "Train on stored history only")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Training seed (overrides train.seed)")
	rootCmd.AddCommand(configCmd)
}

func main() {
	cli.LoadEnvFile()
	cli.SetupLogger(applog.ComponentTrainer)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// effectiveConfig layers flags over the TOML file over the defaults.
func effectiveConfig(cmd *cobra.Command) (trainer.Config, error) {
	cfg, err := trainer.LoadConfig(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagModelPath != "" {
		cfg.ModelPath = flagModelPath
	}
	if flagDBPath != "" {
		cfg.SQLiteDBPath = flagDBPath
	}
	if flagNoSynth {
		cfg.UseSynthetic = false
	}
	if cmd.Flags().Changed("seed") {
		cfg.Train.Seed = flagSeed
	}
	return cfg, nil
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var history trainer.HistorySource
	if cfg.SQLiteDBPath != "" {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer repo.Close()
		history = repo
	}

	rep, err := trainer.Run(ctx, cfg, history)
	if err != nil {
		return err
	}

	m := rep.Result.Metrics
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Corpus:     %d recorded, %d generated series\n", rep.Recorded, rep.Generated)
	fmt.Fprintf(out, "  Examples:   %d train, %d validation\n", rep.Result.Train, rep.Result.Validate)
	fmt.Fprintf(out, "  Epochs:     %d (best %d)\n", rep.Result.Epochs, rep.Result.BestEpoch)
	fmt.Fprintf(out, "  MSE:        %.2f\n", m.MSE)
	fmt.Fprintf(out, "  MAE:        %.2f\n", m.MAE)
	fmt.Fprintf(out, "  Pearson r:  %.4f\n", m.Pearson)
	fmt.Fprintf(out, "  R²:         %.4f\n", m.R2)
	fmt.Fprintf(out, "  Model:      %s\n", rep.ModelPath)
	return nil
}
