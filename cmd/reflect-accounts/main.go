// Package main запускает HTTP API аккаунтов, тарифов и отзывов.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/reflect-accounts/internal/app/api"
	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env)

	logger.Info("starting reflect-accounts", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := api.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("reflect-accounts stopped gracefully")
}
