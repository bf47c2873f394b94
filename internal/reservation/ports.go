package reservation

import (
	"context"
	"errors"
	"time"

	"roombook/pkg/model"
)

var (
	// ErrRoomAbsent is returned (possibly wrapped) by a RoomDirectory that has
	// no room with the requested id.
	ErrRoomAbsent = errors.New("room not found")

	// ErrBookingAbsent is returned (possibly wrapped) by a BookingStore that has
	// no booking with the requested id.
	ErrBookingAbsent = errors.New("booking not found")
)

type RoomDirectory interface {
	GetRoom(ctx context.Context, roomID string) (*model.Room, error)
}

// AuthorizationGate decides who may create bookings in a room and who may
// change an existing booking.
type AuthorizationGate interface {
	CanCreate(ctx context.Context, userID string, room *model.Room) (bool, error)
	CanModify(ctx context.Context, userID string, booking *model.Booking) (bool, error)
}

// BookingStore persists bookings. Every call is a single atomic write or a
// fresh read; callers get no isolation across calls beyond what the room
// lock provides.
type BookingStore interface {
	Insert(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, bookingID string) (*model.Booking, error)
	ReplaceInterval(ctx context.Context, bookingID string, interval model.TimeInterval, title string, at time.Time) error
	MarkCancelled(ctx context.Context, bookingID string, at time.Time) error
	// QueryActiveByRoom returns active bookings of the room that intersect
	// [from, to). A nil bound is open.
	QueryActiveByRoom(ctx context.Context, roomID string, from, to *time.Time) ([]*model.Booking, error)
}

// EventPublisher receives booking lifecycle events after the change has been
// stored. Publish failures never undo the change.
type EventPublisher interface {
	Publish(ctx context.Context, event model.BookingEvent) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
