package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bilancio/internal/backend"
	"bilancio/internal/cache"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/forecast"
	apphttp "bilancio/internal/http"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ledgerSvc := ledger.NewService(res.Store, res.Notifier)

	predictor := forecast.NewPredictor(cfg.ModelPath)
	// Warm the model so a missing artifact shows up at startup; forecasts
	// keep retrying the load until one appears.
	if _, err := predictor.Model(context.Background()); err != nil {
		logger.Warn("Forecast model not available yet", applog.FieldModelPath, cfg.ModelPath, applog.FieldError, err)
	}

	forecastCache := cache.NewLRUCache[forecast.Result](cfg.ForecastCacheSize, cfg.ForecastCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(forecastCache)
	cacheManager.StartCleanup(cfg.CacheSweepInterval)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:    ledgerSvc,
		Forecasts: forecast.NewService(ledgerSvc, predictor, forecastCache),
		Predictor: predictor,
		Logger:    logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting bilancio server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
