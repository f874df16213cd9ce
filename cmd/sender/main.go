// Package main запускает отправителя писем по событиям тарифов.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/reflect-accounts/internal/app/sender"
	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env)
	logger.Info("starting sender", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sender.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize sender", sl.Err(err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		logger.Error("sender stopped with error", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("sender stopped gracefully")
}
