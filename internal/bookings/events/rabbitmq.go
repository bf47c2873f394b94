package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher sends booking events to a durable queue through the
// default exchange. One channel is shared, so publishes are serialized.
type RabbitMQPublisher struct {
	conn   *amqp.Connection
	ch     amqpChannel
	queue  string
	source string
	log    *logger.Logger
	mu     sync.Mutex
}

func NewRabbitMQPublisher(url, queue, source string, log *logger.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare queue %q: %w", queue, err)
	}

	log.Info("RabbitMQ booking event publisher ready", "queue", queue)

	return &RabbitMQPublisher{conn: conn, ch: ch, queue: queue, source: source, log: log}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event model.BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event for booking %s: %w", event.Type, event.BookingID, err)
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: middleware.RequestIDFromContext(ctx),
		Type:          event.Type,
		AppId:         p.source,
		Timestamp:     event.OccurredAt,
		Headers:       amqp.Table{"schema-version": SchemaVersion, "room-id": event.RoomID},
		Body:          body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish to %q: %w", p.queue, err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if connErr := p.conn.Close(); err == nil {
			err = connErr
		}
	}
	return err
}
