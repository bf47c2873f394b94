package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
)

// Engine is the part of the reservation engine the service drives.
type Engine interface {
	Reserve(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	Update(ctx context.Context, req model.UpdateRequest) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID, userID string) error
	ListByRoom(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error)
	Get(ctx context.Context, bookingID string) (*model.Booking, error)
}

type BookingService interface {
	Create(ctx context.Context, userID string, payload *model.CreateBookingPayload) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	Update(ctx context.Context, id, userID string, payload *model.UpdateBookingPayload) (*model.Booking, error)
	Cancel(ctx context.Context, id, userID string) error
	ListByRoom(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error)
}

type bookingService struct {
	engine    Engine
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	engine Engine,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		engine:    engine,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, userID string, payload *model.CreateBookingPayload) (*model.Booking, error) {
	s.sanitizeCreate(payload)
	if err := s.validate(s.validator.ValidateCreate(payload)); err != nil {
		return nil, err
	}

	booking, err := s.engine.Reserve(ctx, model.BookingRequest{
		RoomID:   payload.RoomID,
		UserID:   userID,
		Interval: model.NewInterval(*payload.StartTime, *payload.EndTime),
		Title:    payload.Title,
	})
	if err != nil {
		return nil, bookingserrors.ToAppError(err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"user_id", booking.UserID,
		"start_time", booking.Start,
		"end_time", booking.End,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, bookingserrors.ToAppError(err)
	}
	return booking, nil
}

func (s *bookingService) Update(ctx context.Context, id, userID string, payload *model.UpdateBookingPayload) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if payload.Title != nil {
		title := sanitizer.NormalizeTitle(*payload.Title)
		payload.Title = &title
	}
	if err := s.validate(s.validator.ValidateUpdate(payload)); err != nil {
		return nil, err
	}

	booking, err := s.engine.Update(ctx, model.UpdateRequest{
		BookingID: id,
		UserID:    userID,
		Interval:  model.NewInterval(*payload.StartTime, *payload.EndTime),
		Title:     payload.Title,
	})
	if err != nil {
		return nil, bookingserrors.ToAppError(err)
	}

	s.cfg.Log.Info("Booking updated successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"start_time", booking.Start,
		"end_time", booking.End,
	)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id, userID string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := s.engine.Cancel(ctx, id, userID); err != nil {
		return bookingserrors.ToAppError(err)
	}

	s.cfg.Log.Info("Booking cancelled successfully", "id", id, "user_id", userID)
	return nil
}

func (s *bookingService) ListByRoom(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error) {
	roomID = sanitizer.NormalizeID(roomID)
	if roomID == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	bookings, err := s.engine.ListByRoom(ctx, roomID, from, to)
	if err != nil {
		return nil, bookingserrors.ToAppError(err)
	}
	return bookings, nil
}

func (s *bookingService) sanitizeCreate(p *model.CreateBookingPayload) {
	p.RoomID = sanitizer.NormalizeID(p.RoomID)
	p.Title = sanitizer.NormalizeTitle(p.Title)
}

func (s *bookingService) validate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		s.cfg.Log.Warn("Booking validation failed", "error", validationErrs.Error())
		return apperrors.Validation("Invalid booking request", map[string]any{
			"errors": validationErrs,
		})
	}
	return apperrors.Internal("Failed to validate booking", err)
}
