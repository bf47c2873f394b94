package reservation

import (
	"context"
	"sync"
)

// RoomLocker grants exclusive access to one room at a time. Acquire blocks
// until the room is free or ctx is done; in the latter case it returns the
// context error. The returned release func is safe to call more than once.
//
// Distributed implementations hold a lease that is never renewed, and the
// engine does not re-check it before writing. The lease must outlive the
// longest operation, request timeout plus event publish included.
type RoomLocker interface {
	Acquire(ctx context.Context, roomID string) (release func(), err error)
}

// LocalLocker serializes callers within one process. Each room gets its own
// one-slot semaphore, created on first use and dropped once nobody holds or
// waits for it. The map mutex is held only for bookkeeping.
type LocalLocker struct {
	mu    sync.Mutex
	rooms map[string]*roomSlot
}

type roomSlot struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{rooms: make(map[string]*roomSlot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, roomID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slot := l.ref(roomID)

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(roomID, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.sem
			l.unref(roomID, slot)
		})
	}, nil
}

// Held reports how many rooms currently have a holder or waiter.
func (l *LocalLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}

func (l *LocalLocker) ref(roomID string) *roomSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.rooms[roomID]
	if !ok {
		slot = &roomSlot{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLocker) unref(roomID string, slot *roomSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.rooms, roomID)
	}
}

// ChainLockers acquires every locker in order and releases them in reverse.
// Putting a LocalLocker first keeps same-process contention off the network
// when the later lockers are distributed.
func ChainLockers(lockers ...RoomLocker) RoomLocker {
	return lockerChain(lockers)
}

type lockerChain []RoomLocker

func (c lockerChain) Acquire(ctx context.Context, roomID string) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, locker := range c {
		release, err := locker.Acquire(ctx, roomID)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}

	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}
