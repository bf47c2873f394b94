package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	apperrors "roombook/pkg/errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	WriteError(rec, apperrors.SlotConflict("b-1", start, start.Add(time.Hour)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	resp := decodeError(t, rec)
	if resp.Code != apperrors.CodeSlotConflict {
		t.Errorf("code = %q", resp.Code)
	}
	if resp.Details["conflicting_booking_id"] != "b-1" {
		t.Errorf("details = %v", resp.Details)
	}
}

func TestWriteError_RetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(rec, apperrors.Timeout("busy").WithRetryAfter(2*time.Second))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"plain error", errors.New("dial tcp 10.0.0.1: refused")},
		{"internal app error", apperrors.Internal("mongo exploded", errors.New("boom"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d", rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Error != "Internal server error" {
				t.Errorf("message leaked: %q", resp.Error)
			}
		})
	}
}

func TestExtractTimeRange(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"valid", "from=2030-01-01T09:00:00Z&to=2030-01-01T17:00:00Z", false},
		{"offset zone", "from=2030-01-01T09:00:00%2B02:00&to=2030-01-01T17:00:00Z", false},
		{"missing to", "from=2030-01-01T09:00:00Z", true},
		{"garbage", "from=yesterday&to=2030-01-01T17:00:00Z", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			_, _, err := ExtractTimeRange(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractLimitOffset(t *testing.T) {
	r := &http.Request{URL: &url.URL{RawQuery: "limit=500&offset=-3"}}
	limit, offset, err := ExtractLimitOffset(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 100 || offset != 0 {
		t.Errorf("got limit=%d offset=%d", limit, offset)
	}

	r = &http.Request{URL: &url.URL{RawQuery: "limit=abc"}}
	if _, _, err := ExtractLimitOffset(r); err == nil {
		t.Error("expected error for non-numeric limit")
	}
}
