package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	loansweeper "github.com/magabrotheeeer/credit-risk-engine/internal/app/loan-sweeper"
	"github.com/magabrotheeeer/credit-risk-engine/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting loan-sweeper", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := loansweeper.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("loan-sweeper stopped gracefully")
}
