// Package errors translates reservation failures into API errors.
package errors

import (
	"errors"
	"net/http"
	"time"

	"roombook/internal/reservation"
	apperrors "roombook/pkg/errors"
)

// RetryAfterLockTimeout is the hint sent with 503 responses when a room
// stayed locked for too long.
const RetryAfterLockTimeout = time.Second

// ToAppError maps an engine error to its HTTP representation. AppErrors pass
// through unchanged; anything unrecognised becomes an internal error.
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var resErr *reservation.Error
	if !errors.As(err, &resErr) {
		return apperrors.Internal("Unexpected booking failure", err)
	}

	switch resErr.Kind {
	case reservation.KindInvalidInterval:
		return apperrors.InvalidInterval(resErr.Message)
	case reservation.KindRoomNotFound:
		return apperrors.RoomNotFound(resErr.RoomID)
	case reservation.KindRoomInactive:
		return apperrors.RoomInactive(resErr.RoomID)
	case reservation.KindUnauthorized:
		return apperrors.Forbidden(resErr.Message)
	case reservation.KindSlotConflict:
		if c := resErr.Conflict; c != nil {
			return apperrors.SlotConflict(c.ID, c.Start, c.End)
		}
		return apperrors.Conflict(resErr.Message)
	case reservation.KindNotFound:
		return apperrors.NotFoundWithID("Booking", resErr.BookingID)
	case reservation.KindBookingCancelled:
		return apperrors.BookingCancelled(resErr.BookingID)
	case reservation.KindTimeout:
		return apperrors.Wrap(resErr, apperrors.CodeTimeout, "Room is busy, try again", http.StatusServiceUnavailable).
			WithRetryAfter(RetryAfterLockTimeout)
	default:
		return apperrors.Internal("Booking store failure", resErr)
	}
}
