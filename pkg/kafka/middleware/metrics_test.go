package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"roombook/pkg/kafka"
	"roombook/pkg/logger"
)

func TestMetricsProducerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := MetricsProducerMiddleware(m)

	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("broker down") }

	_ = mw(context.Background(), kafka.Message{}, ok)
	_ = mw(context.Background(), kafka.Message{}, ok)
	if err := mw(context.Background(), kafka.Message{}, fail); err == nil {
		t.Fatal("expected the next error to be returned")
	}

	s := m.Snapshot()
	if s.Published != 2 || s.PublishFailed != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Consumed != 0 || s.AvgConsumeDuration != 0 {
		t.Errorf("consumer side should be untouched, got %+v", s)
	}
}

func TestMetricsConsumerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := MetricsConsumerMiddleware(m)

	_ = mw(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error { return nil })
	_ = mw(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error { return errors.New("bad") })

	s := m.Snapshot()
	if s.Consumed != 1 || s.ConsumeFailed != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestLoggingMiddlewarePassesErrorThrough(t *testing.T) {
	want := errors.New("boom")
	mw := LoggingConsumerMiddleware(logger.Discard())

	got := mw(context.Background(), kafka.Message{Headers: map[string]string{}}, func(context.Context, kafka.Message) error { return want })
	if !errors.Is(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
