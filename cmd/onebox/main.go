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

	"github.com/lmittmann/tint"

	"github.com/oneboxhq/onebox/internal/config"
	"github.com/oneboxhq/onebox/internal/imap"
	"github.com/oneboxhq/onebox/internal/index"
	"github.com/oneboxhq/onebox/internal/notify"
	"github.com/oneboxhq/onebox/internal/pipeline"
	"github.com/oneboxhq/onebox/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting onebox email aggregator")

	// Open the search index
	store, err := index.NewSQLiteStore(cfg.IndexPath)
	if err != nil {
		logger.Error("failed to open index", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Schema must be ready before any ingestion begins
	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to prepare index schema", "error", err)
		os.Exit(1)
	}
	logger.Info("index schema ready", "path", cfg.IndexPath)

	// Notification channels (each silently disabled when unconfigured)
	notifiers := []notify.Notifier{
		notify.NewSlackNotifier(cfg.SlackWebhookURL),
		notify.NewWebhookNotifier(cfg.ExternalWebhookURL),
	}

	// Ingestion queue with its single paced worker
	queue := pipeline.NewQueue(store, notifiers, pipeline.FixedPacer{Interval: cfg.ClassifyInterval}, logger)

	// One mailbox connection per configured account
	manager := imap.NewManager(imap.ManagerConfig{
		BackfillWindow:    cfg.BackfillWindow,
		DialTimeout:       cfg.IMAPDialTimeout,
		ReconnectAttempts: cfg.ReconnectAttempts,
	}, queue, logger)

	accounts := config.Accounts()
	if len(accounts) == 0 {
		logger.Warn("no mailbox accounts configured, ingestion disabled")
	}
	manager.Start(ctx, accounts)

	// Query API
	handler := server.NewHandler(store, logger)
	router := server.NewRouter(handler, cfg.CORSOrigins)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("query API listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("query API failed", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	// Stop producers first, then let the worker finish what it has
	manager.Stop()

	drainCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := queue.Drain(drainCtx); err != nil {
		logger.Warn("queue did not drain before shutdown", "remaining", queue.Len())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("query API shutdown failed", "error", err)
	}

	logger.Info("onebox stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
