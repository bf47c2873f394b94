package auth

import (
	"context"
	"errors"
	"testing"

	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
)

func asUser(id, role string) context.Context {
	return middleware.WithPrincipal(context.Background(), model.Principal{UserID: id, Role: role})
}

func TestRoleGate_CanCreate(t *testing.T) {
	gate := NewRoleGate(logger.Discard())
	open := &model.Room{ID: "atrium"}
	adminsOnly := &model.Room{ID: "boardroom", AllowedRoles: []string{model.RoleAdmin}}

	tests := []struct {
		name   string
		ctx    context.Context
		userID string
		room   *model.Room
		want   bool
	}{
		{"member in open room", asUser("u-1", model.RoleMember), "u-1", open, true},
		{"member in admin room", asUser("u-1", model.RoleMember), "u-1", adminsOnly, false},
		{"admin in admin room", asUser("a-1", model.RoleAdmin), "a-1", adminsOnly, true},
		{"acting for someone else", asUser("u-1", model.RoleMember), "u-2", open, false},
		{"admin acting for someone else", asUser("a-1", model.RoleAdmin), "u-2", open, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.CanCreate(tt.ctx, tt.userID, tt.room)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanCreate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleGate_CanModify(t *testing.T) {
	gate := NewRoleGate(logger.Discard())
	booking := &model.Booking{ID: "b-1", UserID: "u-1"}

	tests := []struct {
		name   string
		ctx    context.Context
		userID string
		want   bool
	}{
		{"owner", asUser("u-1", model.RoleMember), "u-1", true},
		{"other member", asUser("u-2", model.RoleMember), "u-2", false},
		{"admin", asUser("a-1", model.RoleAdmin), "a-1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.CanModify(tt.ctx, tt.userID, booking)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanModify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleGate_NoPrincipal(t *testing.T) {
	gate := NewRoleGate(logger.Discard())

	if _, err := gate.CanCreate(context.Background(), "u-1", &model.Room{}); !errors.Is(err, ErrNoPrincipal) {
		t.Errorf("expected ErrNoPrincipal, got %v", err)
	}
	if gate.CanManageRooms(context.Background()) {
		t.Error("anonymous caller must not manage rooms")
	}
	if !gate.CanManageRooms(asUser("a-1", model.RoleAdmin)) {
		t.Error("admin should manage rooms")
	}
}
