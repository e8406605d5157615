package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lvlup/bookstore/internal/config"
	"github.com/lvlup/bookstore/internal/messaging"
	"github.com/lvlup/bookstore/internal/notify"
	"github.com/lvlup/bookstore/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	_, shutdownTelemetry, err := telemetry.Setup(ctx, "notifier", "0.1.0", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderPlaced, "notifier")
	defer func() { _ = consumer.Close() }()

	handler := notify.NewHandler(logger)

	logger.Info("notifier consuming", "topic", messaging.TopicOrderPlaced, "brokers", brokers)

	if err := consumer.Consume(ctx, handler.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down")
}
