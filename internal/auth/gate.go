// Package auth decides what an authenticated caller may do with rooms and
// bookings.
package auth

import (
	"context"
	"errors"

	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
)

var ErrNoPrincipal = errors.New("no authenticated principal on context")

// RoleGate grants admins everything. Members may book rooms that admit their
// role and may change only their own bookings.
type RoleGate struct {
	log *logger.Logger
}

func NewRoleGate(log *logger.Logger) *RoleGate {
	return &RoleGate{log: log}
}

func (g *RoleGate) CanCreate(ctx context.Context, userID string, room *model.Room) (bool, error) {
	p, err := g.principal(ctx, userID)
	if err != nil || p == nil {
		return false, err
	}
	if p.IsAdmin() {
		return true, nil
	}
	return room.Admits(p.Role), nil
}

func (g *RoleGate) CanModify(ctx context.Context, userID string, booking *model.Booking) (bool, error) {
	p, err := g.principal(ctx, userID)
	if err != nil || p == nil {
		return false, err
	}
	return p.IsAdmin() || booking.UserID == p.UserID, nil
}

// CanManageRooms reports whether the caller may create or change rooms.
func (g *RoleGate) CanManageRooms(ctx context.Context) bool {
	p, ok := middleware.PrincipalFromContext(ctx)
	return ok && p.IsAdmin()
}

// principal returns nil without error when the request acts for a user other
// than the authenticated one.
func (g *RoleGate) principal(ctx context.Context, userID string) (*model.Principal, error) {
	p, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return nil, ErrNoPrincipal
	}
	if p.UserID != userID {
		g.log.Warn("Principal does not match acting user",
			"principal", p.UserID,
			"user_id", userID,
		)
		return nil, nil
	}
	return &p, nil
}
