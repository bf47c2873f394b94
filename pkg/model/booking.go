package model

import (
	"time"
)

const (
	BookingStatusActive    = "active"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID           string `json:"id" bson:"_id"`
	RoomID       string `json:"room_id" bson:"room_id"`
	UserID       string `json:"user_id" bson:"user_id"`
	TimeInterval `bson:",inline"`
	Title        string     `json:"title" bson:"title"`
	Status       string     `json:"status" bson:"status"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}

// BookingRequest is a validated intent to reserve a room. It is never stored.
type BookingRequest struct {
	RoomID   string
	UserID   string
	Interval TimeInterval
	Title    string
}

// UpdateRequest moves an existing booking to a new interval. A nil Title keeps
// the current one.
type UpdateRequest struct {
	BookingID string
	UserID    string
	Interval  TimeInterval
	Title     *string
}

type CreateBookingPayload struct {
	RoomID    string     `json:"room_id" validate:"required,max=64,room_id"`
	StartTime *time.Time `json:"start_time" validate:"required"`
	EndTime   *time.Time `json:"end_time" validate:"required"`
	Title     string     `json:"title" validate:"required,min=1,max=200"`
}

type UpdateBookingPayload struct {
	StartTime *time.Time `json:"start_time" validate:"required"`
	EndTime   *time.Time `json:"end_time" validate:"required"`
	Title     *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
}
