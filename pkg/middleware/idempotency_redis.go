package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"roombook/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	redisIdempotencyPrefix = "roombook:idempotency:"
	redisInFlightPrefix    = "roombook:idempotency-inflight:"
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisIdempotencyStore shares cached responses between instances. Entries
// expire through the key TTL, so there is nothing to sweep.
type RedisIdempotencyStore struct {
	client redisKV
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return newRedisIdempotencyStore(client, ttl, log)
}

func newRedisIdempotencyStore(client redisKV, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl, log: log}
}

// redisKey hashes the scoped key so client supplied values cannot grow the
// keyspace with arbitrary lengths.
func redisKey(key string) string {
	return redisIdempotencyPrefix + digest(key)
}

func redisInFlightKey(key string) string {
	return redisInFlightPrefix + digest(key)
}

func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("Idempotency lookup failed", "error", err)
		}
		return nil, false
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		s.log.Warn("Discarding unreadable idempotency entry", "error", err)
		return nil, false
	}
	return &cached, true
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) {
	response.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(response)
	if err != nil {
		s.log.Error("Failed to encode idempotency entry", "error", err)
		return
	}
	if err := s.client.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		s.log.Warn("Failed to store idempotency entry", "error", err)
	}
}

// Claim sets the in-flight marker with NX. When Redis cannot be reached the
// claim is granted, the same way a failed lookup counts as a miss.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string) bool {
	ok, err := s.client.SetNX(ctx, redisInFlightKey(key), 1, inFlightTTL).Result()
	if err != nil {
		s.log.Warn("Idempotency claim failed", "error", err)
		return true
	}
	return ok
}

func (s *RedisIdempotencyStore) Abandon(ctx context.Context, key string) {
	if err := s.client.Del(ctx, redisInFlightKey(key)).Err(); err != nil {
		s.log.Warn("Failed to clear idempotency claim", "error", err)
	}
}

// Stop is a no-op; the shared Redis client is closed with the other
// connections.
func (s *RedisIdempotencyStore) Stop() {}
