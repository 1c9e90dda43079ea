// Package main is the entry point for the chathub server.
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

	"chathub/config"
	"chathub/internal/chat"
	"chathub/internal/logging"
	"chathub/internal/metrics"
	"chathub/internal/providers"
	"chathub/internal/server"
	"chathub/internal/store"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("storage initialized", "type", cfg.Storage.Type)

	dispatcher, err := providers.Init(cfg)
	if err != nil {
		slog.Error("failed to initialize providers", "error", err)
		os.Exit(1)
	}

	if cfg.Metrics.Enabled {
		dispatcher.SetMetrics(metrics.New(nil))
		slog.Info("prometheus metrics enabled", "endpoint", "/metrics")
	}

	svc := chat.NewService(st, dispatcher)

	srv := server.New(st, svc, dispatcher, &server.Config{
		MetricsEnabled: cfg.Metrics.Enabled,
	})

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}
