package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "booking not found"},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("connection reset"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if !errors.Is(appErr, originalErr) {
		t.Errorf("errors.Is should reach the wrapped cause")
	}
}

func TestAppError_StatusCodeDefaultsToInternal(t *testing.T) {
	if got := (&AppError{Code: "X"}).StatusCode(); got != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", got, http.StatusInternalServerError)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("who"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("dup"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusServiceUnavailable},
		{"rate limited", RateLimited(time.Minute), CodeRateLimited, http.StatusTooManyRequests},
		{"invalid interval", InvalidInterval("start after end"), CodeInvalidInterval, http.StatusUnprocessableEntity},
		{"room not found", RoomNotFound("r1"), CodeRoomNotFound, http.StatusNotFound},
		{"room inactive", RoomInactive("r1"), CodeRoomInactive, http.StatusConflict},
		{"booking cancelled", BookingCancelled("b1"), CodeBookingCancelled, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "b-1")

	if err.Message != "Booking not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "b-1" || err.Details["resource"] != "Booking" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestSlotConflict_Details(t *testing.T) {
	start := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)
	err := SlotConflict("b-7", start, start.Add(time.Hour))

	if err.Details["conflicting_booking_id"] != "b-7" {
		t.Errorf("expected conflicting booking id, got %v", err.Details["conflicting_booking_id"])
	}
	if err.Details["conflicting_start_time"] != "2030-01-02T09:00:00Z" {
		t.Errorf("unexpected start %v", err.Details["conflicting_start_time"])
	}
	if err.Details["conflicting_end_time"] != "2030-01-02T10:00:00Z" {
		t.Errorf("unexpected end %v", err.Details["conflicting_end_time"])
	}
}

func TestRetryAfterHeader(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, ""},
		{time.Second, "1"},
		{1500 * time.Millisecond, "2"},
		{time.Minute, "60"},
	}
	for _, tt := range tests {
		err := Timeout("slow").WithRetryAfter(tt.in)
		if got := err.RetryAfterHeader(); got != tt.want {
			t.Errorf("RetryAfterHeader(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Room")
	if got := AsAppError(appErr); got != appErr {
		t.Errorf("AsAppError() should return the same AppError")
	}

	wrapped := fmt.Errorf("handler: %w", appErr)
	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should find an AppError through wrapping")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should find an AppError through wrapping")
	}

	regularErr := errors.New("regular error")
	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
	if IsAppError(regularErr) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}
