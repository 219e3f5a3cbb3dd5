package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	ports "bilancio/internal/sheets"
	gsheet "bilancio/internal/sheets/google"
	"bilancio/internal/sheets/memory"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting bilancio-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var (
		writer ports.RollupWriter
		reader ports.RollupReader
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetBase:       cfg.RollupSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		writer, reader = client, client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sink := memory.New()
		writer, reader = sink, sink
		logger.Info("Google Sheets disabled - rollups are kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewRollupWorker(repo, writer, reader)
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on changes published while the worker was down.
	if _, _, err := w.ReconcileAll(ctx); err != nil {
		logger.Error("Startup reconcile failed", applog.FieldError, err)
	}

	go func() {
		ticker := time.NewTicker(cfg.ReconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, _, err := w.ReconcileAll(ctx); err != nil && ctx.Err() == nil {
					logger.Error("Periodic reconcile failed", applog.FieldError, err)
				}
			}
		}
	}()

	if err := amqpClient.ConsumeLedgerChanges(ctx, w.HandleLedgerChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
