package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeInvalidInput = "INVALID_INPUT"
	CodeRateLimited  = "RATE_LIMITED"

	CodeInvalidInterval  = "INVALID_INTERVAL"
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeRoomInactive     = "ROOM_INACTIVE"
	CodeSlotConflict     = "SLOT_CONFLICT"
	CodeBookingCancelled = "BOOKING_CANCELLED"

	CodeIdempotencyInFlight = "IDEMPOTENCY_KEY_IN_USE"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	RetryAfter time.Duration  `json:"-"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// RetryAfterHeader renders RetryAfter in whole seconds, rounded up. It is
// empty when no retry hint is set.
func (e *AppError) RetryAfterHeader() string {
	if e.RetryAfter <= 0 {
		return ""
	}
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	return strconv.Itoa(secs)
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithRetryAfter(d time.Duration) *AppError {
	e.RetryAfter = d
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func RateLimited(window time.Duration) *AppError {
	return (&AppError{
		Code:       CodeRateLimited,
		Message:    "Rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}).WithRetryAfter(window)
}

func InvalidInterval(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInterval,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func RoomNotFound(roomID string) *AppError {
	return &AppError{
		Code:       CodeRoomNotFound,
		Message:    "Room not found",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"room_id": roomID},
	}
}

func RoomInactive(roomID string) *AppError {
	return &AppError{
		Code:       CodeRoomInactive,
		Message:    "Room is not accepting bookings",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"room_id": roomID},
	}
}

func SlotConflict(bookingID string, start, end time.Time) *AppError {
	return &AppError{
		Code:       CodeSlotConflict,
		Message:    "Requested interval overlaps an existing booking",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"conflicting_booking_id": bookingID,
			"conflicting_start_time": start.UTC().Format(time.RFC3339),
			"conflicting_end_time":   end.UTC().Format(time.RFC3339),
		},
	}
}

func BookingCancelled(bookingID string) *AppError {
	return &AppError{
		Code:       CodeBookingCancelled,
		Message:    "Booking is cancelled",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"booking_id": bookingID},
	}
}

// IdempotencyInFlight rejects a request whose idempotency key is still being
// served by an earlier request.
func IdempotencyInFlight() *AppError {
	return (&AppError{
		Code:       CodeIdempotencyInFlight,
		Message:    "A request with this idempotency key is still in progress",
		HTTPStatus: http.StatusConflict,
	}).WithRetryAfter(time.Second)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
