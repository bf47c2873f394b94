package kafka_config

import "time"

const (
	DefaultBrokers     = "localhost:9092"
	DefaultClientID    = "roombook"
	DefaultDialTimeout = 10 * time.Second

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = AcksAll
	DefaultProducerCompression  = CompressionSnappy

	DefaultConsumerGroupID = "booking-audit"
	// A fresh audit group replays the topic from the beginning.
	DefaultConsumerStartOffset       = OffsetOldest
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 10 << 20
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = 0
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerMaxRetries        = 3
	DefaultConsumerRetryBackoff      = 200 * time.Millisecond
)

const (
	AcksAll    = -1
	AcksNone   = 0
	AcksLeader = 1

	OffsetNewest int64 = -1
	OffsetOldest int64 = -2

	CompressionNone   = "none"
	CompressionGzip   = "gzip"
	CompressionSnappy = "snappy"
	CompressionLz4    = "lz4"
	CompressionZstd   = "zstd"
)
