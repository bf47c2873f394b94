package service

import (
	"context"
	"errors"

	bookingvalidator "roombook/internal/bookings/validator"
	"roombook/internal/reservation"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
)

// ManagerGate answers whether the caller on ctx may change the directory.
type ManagerGate interface {
	CanManageRooms(ctx context.Context) bool
}

type RoomService interface {
	List(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error)
	GetByID(ctx context.Context, id string) (*model.Room, error)
	Create(ctx context.Context, room *model.Room) (*model.Room, error)
}

type roomService struct {
	repo      repository.RoomRepository
	validator *validator.RoomValidator
	gate      ManagerGate
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	validator *validator.RoomValidator,
	gate ManagerGate,
	cfg *config.Config,
) RoomService {
	return &roomService{
		repo:      repo,
		validator: validator,
		gate:      gate,
		cfg:       cfg,
	}
}

func (s *roomService) List(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error) {
	rooms, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "error", err)
		return nil, 0, apperrors.Internal("Failed to list rooms", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count rooms", "error", err)
		return nil, 0, apperrors.Internal("Failed to count rooms", err)
	}

	return rooms, total, nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, reservation.ErrRoomAbsent) {
			return nil, apperrors.RoomNotFound(id)
		}
		return nil, apperrors.Internal("Failed to load room", err)
	}
	return room, nil
}

// Create adds a room. The id defaults to a slug of the name.
func (s *roomService) Create(ctx context.Context, room *model.Room) (*model.Room, error) {
	if !s.gate.CanManageRooms(ctx) {
		return nil, apperrors.Forbidden("Only admins may create rooms")
	}

	Sanitize(room)
	if err := s.validator.Validate(room); err != nil {
		var validationErrs bookingvalidator.ValidationErrors
		if errors.As(err, &validationErrs) {
			s.cfg.Log.Warn("Room validation failed", "error", validationErrs.Error())
			return nil, apperrors.Validation("Invalid room", map[string]any{"errors": validationErrs})
		}
		return nil, apperrors.Internal("Failed to validate room", err)
	}
	if room.ID == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be derived from name")
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrRoomExists) {
			return nil, apperrors.Conflict("Room already exists").WithDetails(map[string]any{"id": room.ID})
		}
		s.cfg.Log.Error("Failed to create room", "id", room.ID, "error", err)
		return nil, apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created successfully",
		"id", room.ID,
		"name", room.Name,
		"capacity", room.Capacity,
		"active", room.Active,
	)
	return room, nil
}

// Sanitize normalizes the free-text fields of room in place. The seed job
// applies it too, so rooms look the same whichever path created them.
func Sanitize(room *model.Room) {
	room.Name = sanitizer.NormalizeRoomName(room.Name)
	if room.ID == "" {
		room.ID = room.Name
	}
	room.ID = sanitizer.NormalizeID(room.ID)
	room.AllowedRoles = sanitizer.SanitizeSlice(room.AllowedRoles, sanitizer.NormalizeRole)
}
