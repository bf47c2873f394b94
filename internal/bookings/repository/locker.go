package repository

import (
	"roombook/internal/reservation"
	"roombook/pkg/config"
)

// NewRoomLocker builds the locker selected by LockBackend. Distributed
// lockers sit behind an in-process one so local contention stays local.
func NewRoomLocker(cfg *config.Config) reservation.RoomLocker {
	local := reservation.NewLocalLocker()

	switch cfg.LockBackend {
	case config.LockBackendMongo:
		return reservation.ChainLockers(local, NewMongoRoomLocker(cfg))
	case config.LockBackendRedis:
		return reservation.ChainLockers(local, NewRedisRoomLocker(cfg))
	default:
		return local
	}
}
