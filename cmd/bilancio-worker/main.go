package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/clock"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/reconcile"
	"bilancio/internal/source"
	"bilancio/internal/source/httpapi"
	"bilancio/internal/source/memory"
	"bilancio/internal/source/sheets"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "bilancio-worker"})
	applog.SetDefault(logger)

	logger.Info("Starting bilancio-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	src, err := buildSource(cfg)
	if err != nil {
		logger.Error("Failed to initialize source client", "error", err, "backend", cfg.SourceBackend)
		os.Exit(1)
	}
	logger.Info("Initialized source backend", "backend", cfg.SourceBackend)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPCompletedQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker's cache is process-local. Invalidation here keeps its own
	// computations coherent; the API process relies on entry freshness.
	cacheStore := cache.NewMemoryStore(cfg.CacheFreshness)
	reconciler := reconcile.New(src, repo, cacheStore, amqpClient, clock.System())
	syncWorker := worker.NewSyncWorker(reconciler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	err = amqpClient.ConsumeSyncRequests(ctx, func(msg *amqp.SyncRequestMessage) error {
		return syncWorker.HandleSyncRequest(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}

func buildSource(cfg *config.Config) (source.Client, error) {
	switch cfg.SourceBackend {
	case "http":
		return httpapi.New(cfg.SourceBaseURL, cfg.SourceTimeout), nil
	case "sheets":
		return sheets.NewFromEnv(context.Background())
	case "memory":
		return memory.NewClient(), nil
	default:
		return nil, fmt.Errorf("unknown source backend %q", cfg.SourceBackend)
	}
}
