package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"vidchat/internal/app"
	"vidchat/internal/config"
	"vidchat/internal/logger"
)

func main() {
	// Initialize structured logger
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	application, err := app.New(ctx, cfg, deps, nil)
	if err != nil {
		return err
	}
	defer application.Close()

	consumer, err := application.StartTurnConsumer()
	if err != nil {
		// Turns keep queueing in nsqd until a consumer connects.
		log.Error("turn consumer unavailable", "error", err)
	}
	if consumer != nil {
		defer consumer.Stop()
	}

	log.Info("vidchat ready", "index_backend", cfg.IndexBackend, "turn_log", cfg.EnableTurnLog)
	return application.Run(ctx)
}
