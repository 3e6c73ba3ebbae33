package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/analytics"
	"bilancio/internal/cache"
	"bilancio/internal/clock"
	"bilancio/internal/config"
	apphttp "bilancio/internal/http"
	applog "bilancio/internal/log"
	"bilancio/internal/reconcile"
	"bilancio/internal/source"
	"bilancio/internal/source/httpapi"
	"bilancio/internal/source/memory"
	"bilancio/internal/source/sheets"
	"bilancio/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "bilancio"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	cacheStore := cache.NewMemoryStore(cfg.CacheFreshness)

	src, err := buildSource(cfg)
	if err != nil {
		logger.Error("Failed to initialize source client", "error", err, "backend", cfg.SourceBackend)
		os.Exit(1)
	}
	logger.Info("Initialized source backend", "backend", cfg.SourceBackend)

	// AMQP is optional; without it syncs run inline and no events are
	// published.
	var (
		amqpClient *amqp.Client
		events     reconcile.Publisher
		publisher  apphttp.SyncRequestPublisher
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPCompletedQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		publisher = amqpClient
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	reconciler := reconcile.New(src, repo, cacheStore, events, clock.System())
	service := analytics.NewService(repo, cacheStore, reconciler, clock.System())

	srv := apphttp.NewServer(apphttp.Options{
		Port:              cfg.Port,
		JWTSecret:         cfg.JWTSecret,
		RateLimitInterval: cfg.RateLimitInterval,
		RateLimitBurst:    cfg.RateLimitBurst,
		Service:           service,
		Publisher:         publisher,
	})

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting bilancio server", "port", cfg.Port, "backend", cfg.SourceBackend)
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
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
