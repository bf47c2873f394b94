package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roombook/internal/bookings/events"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const (
	ServiceName        = "booking-audit"
	metricsLogInterval = time.Minute
)

func main() {
	cfg := config.Load(ServiceName)

	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kcfg,
		cfg.BookingEventsTopic,
		kcfg.Consumer.GroupID,
		cfg.BookingEventsDLQ,
		events.AuditHandler(cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go logMetrics(ctx, cfg, consumer, metrics)

	cfg.Log.Info("Starting booking audit consumer",
		"topic", cfg.BookingEventsTopic,
		"group_id", kcfg.Consumer.GroupID,
		"dlq_topic", cfg.BookingEventsDLQ,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Booking audit consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	metrics.LogSnapshot(cfg.Log)
	cfg.Log.Info("Booking audit consumer stopped gracefully")
}

func logMetrics(ctx context.Context, cfg *config.Config, consumer *kafka.Consumer, metrics *kafka_middleware.Metrics) {
	ticker := time.NewTicker(metricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.LogSnapshot(cfg.Log)
			cfg.Log.Info("Kafka consumer lag", "lag", consumer.Lag())
		}
	}
}
