package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/app"
	"github.com/riskibarqy/afl-match-model/internal/config"
	"github.com/riskibarqy/afl-match-model/internal/observability"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Console: cfg.AppEnv == config.EnvDev,
		Fields:  []any{"service", cfg.ServiceName, "version", cfg.ServiceVersion},
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownObservability, err := observability.Setup(cfg, logger)
	if err != nil {
		logger.Error("init observability", "error", err)
		_ = shutdownObservability(context.Background())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	srv, err := app.NewHTTPServer(cfg, container, logger)
	if err != nil {
		logger.Error("build http server", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := container.Close(); err != nil {
		logger.Error("close app", "error", err)
	}
	if err := shutdownObservability(shutdownCtx); err != nil {
		logger.Error("shutdown observability", "error", err)
	}

	logger.Info("http server stopped")
}
