package model

import "time"

type Room struct {
	ID           string    `json:"id" bson:"_id" yaml:"id" validate:"omitempty,max=64,room_id"`
	Name         string    `json:"name" bson:"name" yaml:"name" validate:"required,min=2,max=100"`
	Capacity     int       `json:"capacity" bson:"capacity" yaml:"capacity" validate:"required,min=1,max=1000"`
	Active       bool      `json:"active" bson:"active" yaml:"active"`
	AllowedRoles []string  `json:"allowed_roles,omitempty" bson:"allowed_roles,omitempty" yaml:"allowed_roles" validate:"omitempty,dive,oneof=admin member"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" yaml:"-"`
}

// Admits reports whether a caller holding role may book the room. An empty
// AllowedRoles list admits every role.
func (r *Room) Admits(role string) bool {
	if len(r.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
