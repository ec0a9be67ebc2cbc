package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"newsreader/internal/config"
	"newsreader/internal/rss"
	"newsreader/internal/schedule"
	"newsreader/internal/storage"
	"newsreader/internal/web"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	dataDir, err := config.DataDir()
	if err != nil {
		logger.Error("failed to get data directory", "error", err)
		os.Exit(1)
	}
	if err := config.EnsureDataDir(); err != nil {
		logger.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Load or create config
	configPath := filepath.Join(dataDir, "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("config file not found, creating default config", "path", configPath)
			cfg = config.DefaultConfig()
			if err := config.SaveConfig(configPath, cfg); err != nil {
				logger.Error("failed to save default config", "error", err)
				os.Exit(1)
			}
		} else {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	dbPath := filepath.Join(dataDir, "news.db")
	store, err := storage.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("database opened", "path", dbPath)

	client := rss.NewClient(
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
		logger.With("component", "fetcher"),
	)
	pipeline := rss.NewPipeline(
		client,
		store,
		cfg.PipelineSources(),
		cfg.Fetch.ThirdPartyAPI,
		logger.With("component", "pipeline"),
	)

	server := web.NewServer(store, pipeline, logger.With("component", "web"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background ingestion: run shortly after boot, then on the configured
	// interval, with bounded retries on total failure.
	runner := &schedule.Runner{
		Interval:     time.Duration(cfg.Fetch.IntervalMinutes) * time.Minute,
		InitialDelay: 5 * time.Second,
		RetryDelay:   time.Duration(cfg.Fetch.RetryDelaySeconds) * time.Second,
		MaxRetries:   cfg.Fetch.MaxRetries,
		Logger:       logger.With("component", "scheduler"),
		Task: func(ctx context.Context) error {
			summary := pipeline.Run(ctx)
			server.RecordRun(summary)
			// Prune the persisted cache alongside each fetch cycle.
			if deleted, err := store.PruneExpiredCache(ctx); err != nil {
				logger.Warn("failed to prune cache", "error", err)
			} else if deleted > 0 {
				logger.Info("pruned expired cache entries", "deleted", deleted)
			}
			if len(summary.Errors) > 0 {
				return fmt.Errorf("%d source(s) failed", len(summary.Errors))
			}
			return nil
		},
	}
	runner.Go(ctx)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("starting newsreader server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}
