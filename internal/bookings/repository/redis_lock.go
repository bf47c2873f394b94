package repository

import (
	"context"
	"fmt"
	"time"

	"roombook/pkg/config"
	"roombook/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisLockPrefix = "roombook:lock:"

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRoomLocker holds a room through a leased key set with NX.
type RedisRoomLocker struct {
	client *redis.Client
	lease  time.Duration
	retry  time.Duration
	log    *logger.Logger
}

func NewRedisRoomLocker(cfg *config.Config) *RedisRoomLocker {
	return &RedisRoomLocker{
		client: cfg.Client.Redis,
		lease:  cfg.LockLeaseTTL,
		retry:  cfg.LockRetryInterval,
		log:    cfg.Log,
	}
}

func (l *RedisRoomLocker) Acquire(ctx context.Context, roomID string) (func(), error) {
	key := redisLockPrefix + lockKey(roomID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.lease).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to set room lock: %w", err)
		}
		if ok {
			return func() { l.release(ctx, key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisRoomLocker) release(ctx context.Context, key, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()

	deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		l.log.Warn("Failed to release room lock", "key", key, "error", err)
		return
	}
	if deleted == 0 {
		l.log.Warn("Room lock was lost before release", "key", key)
	}
}
