package mongo

import (
	"context"
	"fmt"
	"io"

	"roombook/pkg/logger"
	"roombook/pkg/model"

	"gopkg.in/yaml.v3"
)

// RoomSeedFile is the YAML document read by `migrate --seed-rooms`.
//
//	rooms:
//	  - id: board-room
//	    name: Board Room
//	    capacity: 12
//	    active: true
//	    allowed_roles: [admin]
type RoomSeedFile struct {
	Rooms []model.Room `yaml:"rooms"`
}

// RoomUpserter is the slice of the room repository seeding needs.
type RoomUpserter interface {
	Upsert(ctx context.Context, room *model.Room) (bool, error)
}

// RoomPreparer normalizes and validates a seed entry before it is written.
type RoomPreparer func(room *model.Room) error

func ParseRoomSeed(r io.Reader) ([]model.Room, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file RoomSeedFile
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse room seed: %w", err)
	}
	return file.Rooms, nil
}

// SeedRooms upserts every room, stopping at the first invalid entry so a
// half-valid file never lands partially.
func SeedRooms(ctx context.Context, repo RoomUpserter, rooms []model.Room, prepare RoomPreparer, log *logger.Logger) (created, updated int, err error) {
	for i := range rooms {
		if err := prepare(&rooms[i]); err != nil {
			return 0, 0, fmt.Errorf("room seed entry %d (%q): %w", i, rooms[i].Name, err)
		}
	}

	seen := make(map[string]int, len(rooms))
	for i := range rooms {
		if prev, dup := seen[rooms[i].ID]; dup {
			return 0, 0, fmt.Errorf("room seed entries %d and %d share id %q", prev, i, rooms[i].ID)
		}
		seen[rooms[i].ID] = i
	}

	for i := range rooms {
		inserted, err := repo.Upsert(ctx, &rooms[i])
		if err != nil {
			return created, updated, err
		}
		if inserted {
			created++
		} else {
			updated++
		}
		log.Info("Seeded room", "id", rooms[i].ID, "created", inserted)
	}
	return created, updated, nil
}
