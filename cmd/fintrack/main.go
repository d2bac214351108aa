package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/export"
	fthttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

const cacheJanitorInterval = 10 * time.Minute

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.Create(backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err,
			applog.FieldBackend, backendCfg.Type.String())
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}()
	}

	var opts []fthttp.Option
	if cfg.GoogleSpreadsheetID != "" {
		exporter, err := export.New(context.Background(),
			cfg.GoogleSpreadsheetID, cfg.GoogleCredentialsFile, cfg.GoogleCredentialsJSON)
		if err != nil {
			logger.Warn("Failed to initialize sheets exporter, export endpoint disabled",
				applog.FieldError, err)
		} else {
			logger.Info("Initialized sheets exporter", "spreadsheet_id", cfg.GoogleSpreadsheetID)
			opts = append(opts, fthttp.WithExporter(exporter))
		}
	}

	srv := fthttp.NewServer(":"+cfg.Port, result.Ledger, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			applog.FieldBackend, backendCfg.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cacheJanitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := result.Ledger.CleanExpired(); removed > 0 {
					slog.Debug("Cache cleanup completed", "entries_removed", removed)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
