package repository

import (
	"context"
	"fmt"
	"time"

	"roombook/pkg/config"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LockCollectionName = "Booking_locks"

	lockReleaseTimeout = 5 * time.Second
)

// MongoRoomLocker is an advisory lock shared by every instance using the same
// database. A lock document exists while a room is held; its _id uniqueness
// does the exclusion. Leases expire so a crashed holder cannot wedge a room.
type MongoRoomLocker struct {
	collection lockCollection
	lease      time.Duration
	retry      time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// lockCollection is the part of *mongo.Collection the locker uses.
type lockCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

func NewMongoRoomLocker(cfg *config.Config) *MongoRoomLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return newMongoRoomLocker(db.Collection(LockCollectionName), cfg.LockLeaseTTL, cfg.LockRetryInterval, cfg.Log)
}

func newMongoRoomLocker(collection lockCollection, lease, retry time.Duration, log *logger.Logger) *MongoRoomLocker {
	return &MongoRoomLocker{
		collection: collection,
		lease:      lease,
		retry:      retry,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func lockKey(roomID string) string {
	return "room:" + roomID
}

func (l *MongoRoomLocker) Acquire(ctx context.Context, roomID string) (func(), error) {
	id := lockKey(roomID)
	owner := uuid.NewString()

	for {
		acquired, err := l.tryAcquire(ctx, id, roomID, owner)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		if acquired {
			return func() { l.release(ctx, id, owner) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *MongoRoomLocker) tryAcquire(ctx context.Context, id, roomID, owner string) (bool, error) {
	now := l.now()
	lock := &model.RoomLock{
		ID:        id,
		RoomID:    roomID,
		Owner:     owner,
		ExpiresAt: now.Add(l.lease),
		CreatedAt: now,
	}

	_, err := l.collection.InsertOne(ctx, lock)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to create room lock: %w", err)
	}

	// Held. Take it over only if the lease has run out.
	result, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": id, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"owner":      owner,
			"expires_at": lock.ExpiresAt,
			"created_at": now,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to take over expired room lock: %w", err)
	}
	if result.ModifiedCount == 1 {
		l.log.Warn("Took over expired room lock", "room_id", roomID)
		return true, nil
	}
	return false, nil
}

// release deletes the lock only while this owner still holds it. It runs even
// when the request context has already ended.
func (l *MongoRoomLocker) release(ctx context.Context, id, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()

	result, err := l.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		l.log.Warn("Failed to release room lock", "lock_id", id, "error", err)
		return
	}
	if result.DeletedCount == 0 {
		l.log.Warn("Room lock was lost before release", "lock_id", id)
	}
}
