package reservation

import (
	"errors"
	"fmt"

	"roombook/pkg/model"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInterval
	KindRoomNotFound
	KindRoomInactive
	KindUnauthorized
	KindSlotConflict
	KindNotFound
	KindBookingCancelled
	KindTimeout
	KindStoreFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInterval:
		return "invalid_interval"
	case KindRoomNotFound:
		return "room_not_found"
	case KindRoomInactive:
		return "room_inactive"
	case KindUnauthorized:
		return "unauthorized"
	case KindSlotConflict:
		return "slot_conflict"
	case KindNotFound:
		return "not_found"
	case KindBookingCancelled:
		return "booking_cancelled"
	case KindTimeout:
		return "timeout"
	case KindStoreFailure:
		return "store_failure"
	default:
		return "unknown"
	}
}

// Error is returned by every Engine operation that fails. Conflict is set only
// for KindSlotConflict and points at the booking that holds the slot.
type Error struct {
	Kind      Kind
	Message   string
	RoomID    string
	BookingID string
	Conflict  *model.Booking
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or KindUnknown when err is not an
// *Error.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func invalidInterval(msg string) *Error {
	return &Error{Kind: KindInvalidInterval, Message: msg}
}

func roomNotFound(roomID string) *Error {
	return &Error{Kind: KindRoomNotFound, Message: "room does not exist", RoomID: roomID}
}

func roomInactive(roomID string) *Error {
	return &Error{Kind: KindRoomInactive, Message: "room is not accepting bookings", RoomID: roomID}
}

func unauthorized(msg, roomID, bookingID string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, RoomID: roomID, BookingID: bookingID}
}

func slotConflict(roomID string, holder *model.Booking) *Error {
	return &Error{
		Kind:      KindSlotConflict,
		Message:   "interval overlaps booking " + holder.ID,
		RoomID:    roomID,
		BookingID: holder.ID,
		Conflict:  holder,
	}
}

func notFound(bookingID string) *Error {
	return &Error{Kind: KindNotFound, Message: "booking does not exist", BookingID: bookingID}
}

func bookingCancelled(b *model.Booking) *Error {
	return &Error{Kind: KindBookingCancelled, Message: "booking is cancelled", RoomID: b.RoomID, BookingID: b.ID}
}

func timeout(roomID string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: "gave up waiting for room lock", RoomID: roomID, Err: err}
}

func storeFailure(msg string, err error) *Error {
	return &Error{Kind: KindStoreFailure, Message: msg, Err: err}
}
