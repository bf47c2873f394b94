package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"roombook/internal/bookings/validator"
	"roombook/internal/reservation"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

type mockEngine struct {
	reserveFunc func(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	updateFunc  func(ctx context.Context, req model.UpdateRequest) (*model.Booking, error)
	cancelFunc  func(ctx context.Context, bookingID, userID string) error
	listFunc    func(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error)
	getFunc     func(ctx context.Context, bookingID string) (*model.Booking, error)
}

func (m *mockEngine) Reserve(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	if m.reserveFunc != nil {
		return m.reserveFunc(ctx, req)
	}
	return &model.Booking{ID: "b-1", RoomID: req.RoomID, UserID: req.UserID, TimeInterval: req.Interval, Title: req.Title}, nil
}

func (m *mockEngine) Update(ctx context.Context, req model.UpdateRequest) (*model.Booking, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, req)
	}
	return &model.Booking{ID: req.BookingID, TimeInterval: req.Interval}, nil
}

func (m *mockEngine) Cancel(ctx context.Context, bookingID, userID string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, bookingID, userID)
	}
	return nil
}

func (m *mockEngine) ListByRoom(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, roomID, from, to)
	}
	return []*model.Booking{}, nil
}

func (m *mockEngine) Get(ctx context.Context, bookingID string) (*model.Booking, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, bookingID)
	}
	return &model.Booking{ID: bookingID}, nil
}

func newTestService(engine Engine) BookingService {
	log := logger.Discard()
	return NewBookingService(engine, validator.NewBookingValidator(log), &config.Config{Log: log})
}

func ptrTime(t time.Time) *time.Time { return &t }

var slotStart = time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

func TestCreate_SanitizesAndForwards(t *testing.T) {
	var got model.BookingRequest
	svc := newTestService(&mockEngine{
		reserveFunc: func(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
			got = req
			return &model.Booking{ID: "b-1"}, nil
		},
	})

	_, err := svc.Create(context.Background(), "u-1", &model.CreateBookingPayload{
		RoomID:    "  Board Room 3 ",
		StartTime: ptrTime(slotStart),
		EndTime:   ptrTime(slotStart.Add(time.Hour)),
		Title:     "  weekly   sync ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.RoomID != "board-room-3" {
		t.Errorf("RoomID = %q", got.RoomID)
	}
	if got.Title != "weekly sync" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.UserID != "u-1" {
		t.Errorf("UserID = %q", got.UserID)
	}
	if !got.Interval.Start.Equal(slotStart) {
		t.Errorf("Start = %s", got.Interval.Start)
	}
}

func TestCreate_ValidationFailureSkipsEngine(t *testing.T) {
	called := false
	svc := newTestService(&mockEngine{
		reserveFunc: func(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
			called = true
			return nil, nil
		},
	})

	_, err := svc.Create(context.Background(), "u-1", &model.CreateBookingPayload{RoomID: "atrium", Title: "x"})

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("code = %s, want %s", appErr.Code, apperrors.CodeValidation)
	}
	if called {
		t.Error("engine must not be called for an invalid payload")
	}
}

func TestCreate_MapsEngineErrors(t *testing.T) {
	holder := &model.Booking{ID: "b-9", TimeInterval: model.TimeInterval{Start: slotStart, End: slotStart.Add(time.Hour)}}
	svc := newTestService(&mockEngine{
		reserveFunc: func(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
			return nil, &reservation.Error{Kind: reservation.KindSlotConflict, Conflict: holder}
		},
	})

	_, err := svc.Create(context.Background(), "u-1", &model.CreateBookingPayload{
		RoomID:    "atrium",
		StartTime: ptrTime(slotStart),
		EndTime:   ptrTime(slotStart.Add(time.Hour)),
		Title:     "Demo",
	})

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeSlotConflict {
		t.Fatalf("code = %s", appErr.Code)
	}
	if appErr.Details["conflicting_booking_id"] != "b-9" {
		t.Errorf("details = %v", appErr.Details)
	}
}

func TestUpdate_NormalizesOptionalTitle(t *testing.T) {
	var got model.UpdateRequest
	svc := newTestService(&mockEngine{
		updateFunc: func(ctx context.Context, req model.UpdateRequest) (*model.Booking, error) {
			got = req
			return &model.Booking{ID: req.BookingID}, nil
		},
	})

	title := "  retro  "
	_, err := svc.Update(context.Background(), "b-1", "u-1", &model.UpdateBookingPayload{
		StartTime: ptrTime(slotStart),
		EndTime:   ptrTime(slotStart.Add(time.Hour)),
		Title:     &title,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title == nil || *got.Title != "retro" {
		t.Errorf("Title = %v", got.Title)
	}

	_, err = svc.Update(context.Background(), "b-1", "u-1", &model.UpdateBookingPayload{
		StartTime: ptrTime(slotStart),
		EndTime:   ptrTime(slotStart.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != nil {
		t.Errorf("absent title should stay nil, got %q", *got.Title)
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		engErr   error
		wantCode string
	}{
		{"success", "b-1", nil, ""},
		{"empty id", "", nil, apperrors.CodeInvalidInput},
		{"forbidden", "b-1", &reservation.Error{Kind: reservation.KindUnauthorized}, apperrors.CodeForbidden},
		{"store failure", "b-1", &reservation.Error{Kind: reservation.KindStoreFailure, Err: errors.New("down")}, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockEngine{
				cancelFunc: func(ctx context.Context, bookingID, userID string) error { return tt.engErr },
			})
			err := svc.Cancel(context.Background(), tt.id, "u-1")
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if got := apperrors.AsAppError(err).Code; got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestListByRoom_NormalizesRoomID(t *testing.T) {
	var gotRoom string
	svc := newTestService(&mockEngine{
		listFunc: func(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error) {
			gotRoom = roomID
			return nil, nil
		},
	})

	if _, err := svc.ListByRoom(context.Background(), "Atrium", slotStart, slotStart.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotRoom != "atrium" {
		t.Errorf("roomID = %q", gotRoom)
	}

	if _, err := svc.ListByRoom(context.Background(), "   ", slotStart, slotStart.Add(time.Hour)); apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("blank room id should be invalid input, got %v", err)
	}
}
