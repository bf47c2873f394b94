package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"roombook/pkg/client"
	"roombook/pkg/config"
	"roombook/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLocker(t *testing.T) (*RedisRoomLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Client:            &client.Client{Redis: rdb},
		LockLeaseTTL:      time.Second,
		LockRetryInterval: 2 * time.Millisecond,
		Log:               logger.Discard(),
	}
	return NewRedisRoomLocker(cfg), mr
}

func TestRedisRoomLocker_MutualExclusion(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	key := redisLockPrefix + lockKey("atrium")

	release, err := locker.Acquire(context.Background(), "atrium")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Second {
		t.Errorf("lock key should carry the lease, ttl=%s", ttl)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, "atrium"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while the room is held, got %v", err)
	}

	other, err := locker.Acquire(context.Background(), "library")
	if err != nil {
		t.Fatalf("another room must not be blocked: %v", err)
	}
	other()

	release()
	if mr.Exists(key) {
		t.Fatal("release should delete the lock key")
	}

	again, err := locker.Acquire(context.Background(), "atrium")
	if err != nil {
		t.Fatalf("room should be free after release: %v", err)
	}
	again()
}

func TestRedisRoomLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	key := redisLockPrefix + lockKey("atrium")

	stale, err := locker.Acquire(context.Background(), "atrium")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(context.Background(), "atrium")
	if err != nil {
		t.Fatalf("expired lease should let a new holder in: %v", err)
	}
	token, _ := mr.Get(key)

	stale()
	if got, _ := mr.Get(key); got != token {
		t.Fatalf("stale release must not delete the new holder's key, got %q want %q", got, token)
	}

	fresh()
	if mr.Exists(key) {
		t.Fatal("new holder's release should delete the key")
	}
}

func TestRedisRoomLocker_ReleaseOutlivesRequestContext(t *testing.T) {
	locker, mr := newTestRedisLocker(t)

	ctx, cancel := context.WithCancel(context.Background())
	release, err := locker.Acquire(ctx, "atrium")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	cancel()
	release()

	if mr.Exists(redisLockPrefix + lockKey("atrium")) {
		t.Fatal("release must run even after the request context ends")
	}
}
