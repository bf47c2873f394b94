package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"roombook/pkg/logger"
)

type Config struct {
	Brokers     []string
	ClientID    string
	DialTimeout time.Duration

	Producer ProducerConfig
	Consumer ConsumerConfig
}

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int
	Compression  string
}

// ConsumerConfig holds reader settings. Commits are synchronous when
// CommitInterval is zero.
type ConsumerConfig struct {
	GroupID           string
	StartOffset       int64
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Load reads the Kafka settings shared by the booking event producer and the
// audit consumer.
func Load() (*Config, error) {
	cfg := &Config{
		Brokers:     splitBrokers(getEnvStr(EnvBrokers, DefaultBrokers)),
		ClientID:    getEnvStr(EnvClientID, DefaultClientID),
		DialTimeout: getEnvDuration(EnvDialTimeout, DefaultDialTimeout),
		Producer: ProducerConfig{
			MaxAttempts:  getEnvInt(EnvProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: getEnvDuration(EnvProducerBatchTimeout, DefaultProducerBatchTimeout),
			RequireAcks:  getEnvInt(EnvProducerRequireAcks, DefaultProducerRequireAcks),
			Compression:  strings.ToLower(getEnvStr(EnvProducerCompression, DefaultProducerCompression)),
		},
		Consumer: ConsumerConfig{
			GroupID:           getEnvStr(EnvConsumerGroupID, DefaultConsumerGroupID),
			StartOffset:       getEnvInt64(EnvConsumerStartOffset, DefaultConsumerStartOffset),
			MinBytes:          getEnvInt(EnvConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          getEnvInt(EnvConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           getEnvDuration(EnvConsumerMaxWait, DefaultConsumerMaxWait),
			CommitInterval:    getEnvDuration(EnvConsumerCommitInterval, DefaultConsumerCommitInterval),
			HeartbeatInterval: getEnvDuration(EnvConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    getEnvDuration(EnvConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			MaxRetries:        getEnvInt(EnvConsumerMaxRetries, DefaultConsumerMaxRetries),
			RetryBackoff:      getEnvDuration(EnvConsumerRetryBackoff, DefaultConsumerRetryBackoff),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (cfg *Config) Validate() error {
	var errors []string

	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	if cfg.ClientID == "" {
		errors = append(errors, "ClientID cannot be empty")
	}
	if cfg.DialTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("DialTimeout must be positive, got: %s", cfg.DialTimeout))
	}

	errors = append(errors, cfg.Producer.validate()...)
	errors = append(errors, cfg.Consumer.validate()...)

	if len(errors) > 0 {
		errMsg := "Kafka configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (p ProducerConfig) validate() []string {
	var errors []string

	if p.MaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("Producer.MaxAttempts must be positive, got: %d", p.MaxAttempts))
	}
	if p.BatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("Producer.BatchTimeout must be positive, got: %s", p.BatchTimeout))
	}

	switch p.Compression {
	case CompressionNone, CompressionGzip, CompressionSnappy, CompressionLz4, CompressionZstd:
	default:
		errors = append(errors, fmt.Sprintf("Producer.Compression must be one of [none, gzip, snappy, lz4, zstd], got: %s", p.Compression))
	}

	switch p.RequireAcks {
	case AcksAll, AcksNone, AcksLeader:
	default:
		errors = append(errors, fmt.Sprintf("Producer.RequireAcks must be -1, 0, or 1, got: %d", p.RequireAcks))
	}

	return errors
}

func (c ConsumerConfig) validate() []string {
	var errors []string

	if c.GroupID == "" {
		errors = append(errors, "Consumer.GroupID cannot be empty")
	}
	if c.StartOffset != OffsetNewest && c.StartOffset != OffsetOldest {
		errors = append(errors, fmt.Sprintf("Consumer.StartOffset must be -1 (newest) or -2 (oldest), got: %d", c.StartOffset))
	}
	if c.MinBytes <= 0 || c.MaxBytes < c.MinBytes {
		errors = append(errors, fmt.Sprintf("Consumer.MinBytes/MaxBytes must satisfy 0 < min <= max, got: %d/%d", c.MinBytes, c.MaxBytes))
	}
	if c.MaxWait <= 0 {
		errors = append(errors, fmt.Sprintf("Consumer.MaxWait must be positive, got: %s", c.MaxWait))
	}
	if c.CommitInterval < 0 {
		errors = append(errors, fmt.Sprintf("Consumer.CommitInterval cannot be negative, got: %s", c.CommitInterval))
	}
	if c.HeartbeatInterval <= 0 || c.SessionTimeout <= c.HeartbeatInterval {
		errors = append(errors, fmt.Sprintf("Consumer.SessionTimeout (%s) must exceed Consumer.HeartbeatInterval (%s)", c.SessionTimeout, c.HeartbeatInterval))
	}
	if c.MaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("Consumer.MaxRetries cannot be negative, got: %d", c.MaxRetries))
	}
	if c.RetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("Consumer.RetryBackoff cannot be negative, got: %s", c.RetryBackoff))
	}

	return errors
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"client_id", cfg.ClientID,
		"dial_timeout", cfg.DialTimeout,
		"producer_max_attempts", cfg.Producer.MaxAttempts,
		"producer_batch_timeout", cfg.Producer.BatchTimeout,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_compression", cfg.Producer.Compression,
		"consumer_group_id", cfg.Consumer.GroupID,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_max_wait", cfg.Consumer.MaxWait,
		"consumer_commit_interval", cfg.Consumer.CommitInterval,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"consumer_retry_backoff", cfg.Consumer.RetryBackoff,
	)
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if int64Value, err := strconv.ParseInt(value, 10, 64); err == nil {
			return int64Value
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
