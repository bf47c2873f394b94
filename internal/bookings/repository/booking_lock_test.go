package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roombook/pkg/logger"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeLockCollection keeps lock documents in memory and answers the three
// filters the locker sends.
type fakeLockCollection struct {
	mu        sync.Mutex
	docs      map[string]model.RoomLock
	insertErr error
}

func newFakeLockCollection() *fakeLockCollection {
	return &fakeLockCollection{docs: map[string]model.RoomLock{}}
}

func (c *fakeLockCollection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.insertErr != nil {
		return nil, c.insertErr
	}
	lock := document.(*model.RoomLock)
	if _, exists := c.docs[lock.ID]; exists {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}
	}
	c.docs[lock.ID] = *lock
	return &mongo.InsertOneResult{InsertedID: lock.ID}, nil
}

func (c *fakeLockCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := filter.(bson.M)
	id := f["_id"].(string)
	cutoff := f["expires_at"].(bson.M)["$lte"].(time.Time)

	doc, exists := c.docs[id]
	if !exists || doc.ExpiresAt.After(cutoff) {
		return &mongo.UpdateResult{}, nil
	}

	set := update.(bson.M)["$set"].(bson.M)
	doc.Owner = set["owner"].(string)
	doc.ExpiresAt = set["expires_at"].(time.Time)
	doc.CreatedAt = set["created_at"].(time.Time)
	c.docs[id] = doc
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (c *fakeLockCollection) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := filter.(bson.M)
	id := f["_id"].(string)
	doc, exists := c.docs[id]
	if !exists || doc.Owner != f["owner"].(string) {
		return &mongo.DeleteResult{}, nil
	}
	delete(c.docs, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (c *fakeLockCollection) owner(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[id]
	return doc.Owner, ok
}

func newTestMongoLocker(coll *fakeLockCollection, now *time.Time) *MongoRoomLocker {
	l := newMongoRoomLocker(coll, time.Minute, 2*time.Millisecond, logger.Discard())
	l.now = func() time.Time { return *now }
	return l
}

func TestMongoRoomLocker_HeldRoomTimesOut(t *testing.T) {
	coll := newFakeLockCollection()
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	locker := newTestMongoLocker(coll, &now)

	release, err := locker.Acquire(context.Background(), "atrium")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer release()

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
}

func TestMongoRoomLocker_ReleaseFreesRoom(t *testing.T) {
	coll := newFakeLockCollection()
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	locker := newTestMongoLocker(coll, &now)

	release, err := locker.Acquire(context.Background(), "atrium")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()

	if _, held := coll.owner(lockKey("atrium")); held {
		t.Fatal("lock document should be deleted on release")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	again, err := locker.Acquire(ctx, "atrium")
	if err != nil {
		t.Fatalf("room should be free after release: %v", err)
	}
	again()
}

func TestMongoRoomLocker_ExpiredLeaseIsTakenOver(t *testing.T) {
	coll := newFakeLockCollection()
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	locker := newTestMongoLocker(coll, &now)
	id := lockKey("atrium")

	stale, err := locker.Acquire(context.Background(), "atrium")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	staleOwner, _ := coll.owner(id)

	now = now.Add(2 * time.Minute)
	fresh, err := locker.Acquire(context.Background(), "atrium")
	if err != nil {
		t.Fatalf("expired lease should be taken over: %v", err)
	}
	freshOwner, _ := coll.owner(id)
	if freshOwner == staleOwner {
		t.Fatal("takeover should record the new owner")
	}

	stale()
	if owner, held := coll.owner(id); !held || owner != freshOwner {
		t.Fatalf("stale release must not delete the new holder's lock, owner=%q held=%v", owner, held)
	}

	fresh()
	if _, held := coll.owner(id); held {
		t.Fatal("new holder's release should delete the lock")
	}
}

func TestMongoRoomLocker_ReleaseOutlivesRequestContext(t *testing.T) {
	coll := newFakeLockCollection()
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	locker := newTestMongoLocker(coll, &now)

	ctx, cancel := context.WithCancel(context.Background())
	release, err := locker.Acquire(ctx, "atrium")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	cancel()
	release()

	if _, held := coll.owner(lockKey("atrium")); held {
		t.Fatal("release must run even after the request context ends")
	}
}

func TestMongoRoomLocker_InsertFailure(t *testing.T) {
	coll := newFakeLockCollection()
	coll.insertErr = errors.New("not primary")
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	locker := newTestMongoLocker(coll, &now)

	_, err := locker.Acquire(context.Background(), "atrium")
	if err == nil || !errors.Is(err, coll.insertErr) {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
}
