// Package reservation decides whether a room booking may be created, moved or
// cancelled. All mutations of one room run under that room's lock and read
// the store fresh, so two active bookings of a room never overlap.
package reservation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"github.com/google/uuid"
)

const (
	DefaultLockWaitTimeout = 5 * time.Second
	// publishTimeout matches config.LockPublishMargin; the publish runs under
	// the room lock.
	publishTimeout         = 5 * time.Second
)

type Settings struct {
	// PastGrace is how far in the past a new interval may start. Zero rejects
	// any start before now.
	PastGrace time.Duration
	// LockWaitTimeout bounds the wait for a room lock when the caller's
	// context carries no deadline.
	LockWaitTimeout time.Duration
}

type Engine struct {
	rooms    RoomDirectory
	store    BookingStore
	gate     AuthorizationGate
	locker   RoomLocker
	events   EventPublisher
	clock    Clock
	log      *logger.Logger
	settings Settings
	newID    func() string
}

func NewEngine(
	rooms RoomDirectory,
	store BookingStore,
	gate AuthorizationGate,
	locker RoomLocker,
	log *logger.Logger,
	settings Settings,
) *Engine {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if settings.LockWaitTimeout <= 0 {
		settings.LockWaitTimeout = DefaultLockWaitTimeout
	}
	return &Engine{
		rooms:    rooms,
		store:    store,
		gate:     gate,
		locker:   locker,
		clock:    SystemClock{},
		log:      log,
		settings: settings,
		newID:    func() string { return uuid.New().String() },
	}
}

// WithPublisher attaches an event sink. A nil publisher disables events.
func (e *Engine) WithPublisher(p EventPublisher) *Engine {
	e.events = p
	return e
}

func (e *Engine) WithClock(c Clock) *Engine {
	e.clock = c
	return e
}

// Reserve books req.Interval in req.RoomID for req.UserID. The first request
// admitted to the room's lock wins; a later overlapping one fails with
// KindSlotConflict and a reference to the winner.
func (e *Engine) Reserve(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	interval := req.Interval.Normalize()
	if err := e.checkInterval(interval); err != nil {
		return nil, err
	}

	room, err := e.lookupRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, roomInactive(room.ID)
	}

	allowed, err := e.gate.CanCreate(ctx, req.UserID, room)
	if err != nil {
		return nil, storeFailure("authorization check failed", err)
	}
	if !allowed {
		e.log.Warn("Booking creation denied", "room_id", room.ID, "user_id", req.UserID)
		return nil, unauthorized("user may not book this room", room.ID, "")
	}

	release, err := e.lockRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if holder, err := e.findConflict(ctx, room.ID, interval, ""); err != nil {
		return nil, err
	} else if holder != nil {
		e.log.Info("Booking rejected, slot taken",
			"room_id", room.ID,
			"user_id", req.UserID,
			"conflicting_booking_id", holder.ID,
		)
		return nil, slotConflict(room.ID, holder)
	}

	now := e.clock.Now()
	booking := &model.Booking{
		ID:           e.newID(),
		RoomID:       room.ID,
		UserID:       req.UserID,
		TimeInterval: interval,
		Title:        sanitizer.NormalizeTitle(req.Title),
		Status:       model.BookingStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.Insert(ctx, booking); err != nil {
		e.log.Error("Failed to store booking", "room_id", room.ID, "error", err)
		return nil, storeFailure("failed to store booking", err)
	}
	e.log.Info("Booking created",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"user_id", booking.UserID,
		"start_time", booking.Start,
		"end_time", booking.End,
	)
	e.publish(ctx, model.EventBookingCreated, booking)
	return booking, nil
}

// Update moves an active booking to a new interval, and optionally renames
// it. On any failure the stored booking is left exactly as it was.
func (e *Engine) Update(ctx context.Context, req model.UpdateRequest) (*model.Booking, error) {
	existing, err := e.loadBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	allowed, err := e.gate.CanModify(ctx, req.UserID, existing)
	if err != nil {
		return nil, storeFailure("authorization check failed", err)
	}
	if !allowed {
		e.log.Warn("Booking update denied", "id", existing.ID, "user_id", req.UserID)
		return nil, unauthorized("user may not modify this booking", existing.RoomID, existing.ID)
	}

	interval := req.Interval.Normalize()
	if err := e.checkInterval(interval); err != nil {
		return nil, err
	}
	if !existing.IsActive() {
		return nil, bookingCancelled(existing)
	}

	release, err := e.lockRoom(ctx, existing.RoomID)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := e.loadBooking(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return nil, bookingCancelled(current)
	}

	if holder, err := e.findConflict(ctx, current.RoomID, interval, current.ID); err != nil {
		return nil, err
	} else if holder != nil {
		e.log.Info("Booking update rejected, slot taken",
			"id", current.ID,
			"room_id", current.RoomID,
			"conflicting_booking_id", holder.ID,
		)
		return nil, slotConflict(current.RoomID, holder)
	}

	title := current.Title
	if req.Title != nil {
		title = sanitizer.NormalizeTitle(*req.Title)
	}
	now := e.clock.Now()
	if err := e.store.ReplaceInterval(ctx, current.ID, interval, title, now); err != nil {
		if errors.Is(err, ErrBookingAbsent) {
			return nil, notFound(current.ID)
		}
		e.log.Error("Failed to update booking", "id", current.ID, "error", err)
		return nil, storeFailure("failed to update booking", err)
	}
	updated := *current
	updated.TimeInterval = interval
	updated.Title = title
	updated.UpdatedAt = now

	e.log.Info("Booking updated",
		"id", updated.ID,
		"room_id", updated.RoomID,
		"start_time", updated.Start,
		"end_time", updated.End,
	)
	e.publish(ctx, model.EventBookingUpdated, &updated)
	return &updated, nil
}

// Cancel releases a booking's slot. Cancelling an already cancelled booking
// succeeds without touching the store.
func (e *Engine) Cancel(ctx context.Context, bookingID, userID string) error {
	existing, err := e.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	allowed, err := e.gate.CanModify(ctx, userID, existing)
	if err != nil {
		return storeFailure("authorization check failed", err)
	}
	if !allowed {
		e.log.Warn("Booking cancellation denied", "id", existing.ID, "user_id", userID)
		return unauthorized("user may not cancel this booking", existing.RoomID, existing.ID)
	}
	if !existing.IsActive() {
		return nil
	}

	release, err := e.lockRoom(ctx, existing.RoomID)
	if err != nil {
		return err
	}
	defer release()

	current, err := e.loadBooking(ctx, existing.ID)
	if err != nil {
		return err
	}
	if !current.IsActive() {
		return nil
	}

	now := e.clock.Now()
	if err := e.store.MarkCancelled(ctx, current.ID, now); err != nil {
		if errors.Is(err, ErrBookingAbsent) {
			return notFound(current.ID)
		}
		e.log.Error("Failed to cancel booking", "id", current.ID, "error", err)
		return storeFailure("failed to cancel booking", err)
	}
	cancelled := *current
	cancelled.Status = model.BookingStatusCancelled
	cancelled.CancelledAt = &now
	cancelled.UpdatedAt = now

	e.log.Info("Booking cancelled", "id", cancelled.ID, "room_id", cancelled.RoomID, "user_id", userID)
	e.publish(ctx, model.EventBookingCancelled, &cancelled)
	return nil
}

// ListByRoom returns the room's active bookings that intersect [from, to),
// earliest first. It takes no lock.
func (e *Engine) ListByRoom(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error) {
	window := model.NewInterval(from, to)
	if !window.Valid() {
		return nil, invalidInterval("from must be before to")
	}

	if _, err := e.lookupRoom(ctx, roomID); err != nil {
		return nil, err
	}

	bookings, err := e.store.QueryActiveByRoom(ctx, roomID, &window.Start, &window.End)
	if err != nil {
		e.log.Error("Failed to list bookings", "room_id", roomID, "error", err)
		return nil, storeFailure("failed to list bookings", err)
	}

	active := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() && b.Overlaps(window) {
			active = append(active, b)
		}
	}
	sortByStart(active)
	return active, nil
}

func (e *Engine) Get(ctx context.Context, bookingID string) (*model.Booking, error) {
	return e.loadBooking(ctx, bookingID)
}

func (e *Engine) checkInterval(interval model.TimeInterval) error {
	if interval.Start.IsZero() || interval.End.IsZero() {
		return invalidInterval("start and end are required")
	}
	if !interval.Start.Before(interval.End) {
		return invalidInterval("start must be before end")
	}
	earliest := e.clock.Now().Add(-e.settings.PastGrace)
	if interval.Start.Before(earliest) {
		return invalidInterval("start is in the past")
	}
	return nil
}

func (e *Engine) lookupRoom(ctx context.Context, roomID string) (*model.Room, error) {
	if roomID == "" {
		return nil, roomNotFound(roomID)
	}
	room, err := e.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomAbsent) {
			return nil, roomNotFound(roomID)
		}
		e.log.Error("Failed to look up room", "room_id", roomID, "error", err)
		return nil, storeFailure("failed to look up room", err)
	}
	return room, nil
}

func (e *Engine) loadBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, notFound(bookingID)
	}
	booking, err := e.store.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingAbsent) {
			return nil, notFound(bookingID)
		}
		e.log.Error("Failed to load booking", "id", bookingID, "error", err)
		return nil, storeFailure("failed to load booking", err)
	}
	return booking, nil
}

// lockRoom waits for the room lock. Only the wait is bounded by
// LockWaitTimeout; work done while holding the lock uses the caller's ctx.
func (e *Engine) lockRoom(ctx context.Context, roomID string) (func(), error) {
	waitCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, e.settings.LockWaitTimeout)
		defer cancel()
	}

	release, err := e.locker.Acquire(waitCtx, roomID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			e.log.Warn("Timed out waiting for room lock", "room_id", roomID, "error", err)
			return nil, timeout(roomID, err)
		}
		e.log.Error("Failed to acquire room lock", "room_id", roomID, "error", err)
		return nil, storeFailure("failed to acquire room lock", err)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

// findConflict returns the earliest active booking of the room overlapping
// interval, ignoring the booking with id skipID.
func (e *Engine) findConflict(ctx context.Context, roomID string, interval model.TimeInterval, skipID string) (*model.Booking, error) {
	existing, err := e.store.QueryActiveByRoom(ctx, roomID, &interval.Start, &interval.End)
	if err != nil {
		e.log.Error("Failed to check existing bookings", "room_id", roomID, "error", err)
		return nil, storeFailure("failed to check existing bookings", err)
	}

	var holder *model.Booking
	for _, b := range existing {
		if b.ID == skipID || !b.IsActive() || !b.Overlaps(interval) {
			continue
		}
		if holder == nil || b.Start.Before(holder.Start) {
			holder = b
		}
	}
	return holder, nil
}

// publish runs while the room lock is still held, so the events of one room
// reach the publisher in the order their writes were committed.
func (e *Engine) publish(ctx context.Context, eventType string, b *model.Booking) {
	if e.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := model.NewBookingEvent(eventType, b, e.clock.Now())
	if err := e.events.Publish(ctx, event); err != nil {
		e.log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"id", b.ID,
			"room_id", b.RoomID,
			"error", err,
		)
	}
}

func sortByStart(bookings []*model.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].Start.Before(bookings[j].Start)
	})
}
