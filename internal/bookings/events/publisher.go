package events

import (
	"fmt"

	"roombook/internal/reservation"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

// Publisher is an event sink that owns a broker connection.
type Publisher interface {
	reservation.EventPublisher
	Close() error
}

// NewPublisher builds the publisher selected by cfg.EventsBackend. It returns
// a nil Publisher when events are disabled. metrics may be nil.
func NewPublisher(cfg *config.Config, source string, metrics *kafka_middleware.Metrics) (Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsBackendKafka:
		kcfg, err := kafka_config.Load()
		if err != nil {
			return nil, err
		}
		kcfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kcfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQ, cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		if metrics != nil {
			producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
		}
		return NewKafkaPublisher(producer, source), nil

	case config.EventsBackendRabbitMQ:
		pub, err := NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.BookingEventsQueue, source, cfg.Log)
		if err != nil {
			return nil, err
		}
		return pub, nil

	case config.EventsBackendNone, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}
