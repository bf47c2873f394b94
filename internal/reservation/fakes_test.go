package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roombook/pkg/logger"
	"roombook/pkg/model"
)

var testNow = time.Date(2030, time.January, 7, 8, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func slot(startHour, startMin, endHour, endMin int) model.TimeInterval {
	day := testNow.Truncate(24 * time.Hour)
	return model.TimeInterval{
		Start: day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:   day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
	}
}

type memRooms struct {
	rooms map[string]*model.Room
	err   error
}

func newMemRooms(rooms ...*model.Room) *memRooms {
	m := &memRooms{rooms: make(map[string]*model.Room)}
	for _, r := range rooms {
		m.rooms[r.ID] = r
	}
	return m
}

func (m *memRooms) GetRoom(_ context.Context, id string) (*model.Room, error) {
	if m.err != nil {
		return nil, m.err
	}
	room, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("lookup %s: %w", id, ErrRoomAbsent)
	}
	cp := *room
	return &cp, nil
}

// memStore is an in-memory BookingStore. Counters let tests assert that a
// failed operation did not write.
type memStore struct {
	mu        sync.Mutex
	bookings  map[string]*model.Booking
	inserts   int
	replaces  int
	cancels   int
	insertErr error
	queryErr  error
}

func newMemStore() *memStore {
	return &memStore{bookings: make(map[string]*model.Booking)}
}

func (s *memStore) Insert(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.bookings[b.ID]; ok {
		return errors.New("duplicate id")
	}
	cp := *b
	s.bookings[b.ID] = &cp
	s.inserts++
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingAbsent
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) ReplaceInterval(_ context.Context, id string, interval model.TimeInterval, title string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrBookingAbsent
	}
	b.TimeInterval = interval
	b.Title = title
	b.UpdatedAt = at
	s.replaces++
	return nil
}

func (s *memStore) MarkCancelled(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrBookingAbsent
	}
	b.Status = model.BookingStatusCancelled
	b.CancelledAt = &at
	b.UpdatedAt = at
	s.cancels++
	return nil
}

func (s *memStore) QueryActiveByRoom(_ context.Context, roomID string, from, to *time.Time) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []*model.Booking
	for _, b := range s.bookings {
		if b.RoomID != roomID || !b.IsActive() {
			continue
		}
		if to != nil && !b.Start.Before(*to) {
			continue
		}
		if from != nil && !b.End.After(*from) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) get(id string) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

func (s *memStore) active(roomID string) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.RoomID == roomID && b.IsActive() {
			out = append(out, *b)
		}
	}
	return out
}

type mockGate struct {
	canCreateFunc func(ctx context.Context, userID string, room *model.Room) (bool, error)
	canModifyFunc func(ctx context.Context, userID string, booking *model.Booking) (bool, error)
}

func (m *mockGate) CanCreate(ctx context.Context, userID string, room *model.Room) (bool, error) {
	if m.canCreateFunc != nil {
		return m.canCreateFunc(ctx, userID, room)
	}
	return true, nil
}

// CanModify defaults to owner-only.
func (m *mockGate) CanModify(ctx context.Context, userID string, booking *model.Booking) (bool, error) {
	if m.canModifyFunc != nil {
		return m.canModifyFunc(ctx, userID, booking)
	}
	return booking.UserID == userID, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	engine    *Engine
	store     *memStore
	rooms     *memRooms
	gate      *mockGate
	locker    *LocalLocker
	publisher *recordingPublisher
}

func newTestEnv(settings Settings) *testEnv {
	env := &testEnv{
		store: newMemStore(),
		rooms: newMemRooms(
			&model.Room{ID: "atrium", Name: "Atrium", Capacity: 8, Active: true},
			&model.Room{ID: "library", Name: "Library", Capacity: 4, Active: true},
			&model.Room{ID: "attic", Name: "Attic", Capacity: 2, Active: false},
		),
		gate:      &mockGate{},
		locker:    NewLocalLocker(),
		publisher: &recordingPublisher{},
	}
	env.engine = NewEngine(env.rooms, env.store, env.gate, env.locker, logger.Discard(), settings).
		WithClock(fixedClock{now: testNow}).
		WithPublisher(env.publisher)
	return env
}

func (env *testEnv) reserve(roomID, userID string, interval model.TimeInterval) (*model.Booking, error) {
	return env.engine.Reserve(context.Background(), model.BookingRequest{
		RoomID:   roomID,
		UserID:   userID,
		Interval: interval,
		Title:    "meeting",
	})
}
