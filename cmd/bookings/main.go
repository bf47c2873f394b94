package main

import (
	"context"

	"roombook/internal/auth"
	"roombook/internal/bookings/events"
	bookinghandler "roombook/internal/bookings/handler"
	bookingrepository "roombook/internal/bookings/repository"
	bookingservice "roombook/internal/bookings/service"
	bookingvalidator "roombook/internal/bookings/validator"
	"roombook/internal/reservation"
	roomhandler "roombook/internal/rooms/handler"
	roomrepository "roombook/internal/rooms/repository"
	roomservice "roombook/internal/rooms/service"
	roomvalidator "roombook/internal/rooms/validator"
	"roombook/pkg/app"
	"roombook/pkg/config"
	"roombook/pkg/contracts"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	if err := cfg.ValidateAuth(); err != nil {
		cfg.Log.Fatal("Invalid auth configuration", "error", err)
	}

	cfg.SetMongo()
	if cfg.LockBackend == config.LockBackendRedis || cfg.IdempotencyBackend == config.IdempotencyBackendRedis {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication()

	gate := auth.NewRoleGate(cfg.Log)
	roomRepo := roomrepository.NewMongoRoomRepository(cfg)

	metrics := kafka_middleware.NewMetrics()
	publisher, err := events.NewPublisher(cfg, ServiceName, metrics)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking event publisher", "backend", cfg.EventsBackend, "error", err)
	}

	engine := initEngine(cfg, roomRepo, gate, publisher)
	bookingService := bookingservice.NewBookingService(engine, bookingvalidator.NewBookingValidator(cfg.Log), cfg)
	roomService := roomservice.NewRoomService(roomRepo, roomvalidator.NewRoomValidator(cfg.Log), gate, cfg)

	serverApp.SetApp(cfg,
		roomhandler.NewHealthHandler(healthDeps(cfg), cfg.Log),
		roomhandler.NewRoomHandler(roomService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	)

	if publisher != nil {
		serverApp.OnShutdown(func() {
			if err := publisher.Close(); err != nil {
				cfg.Log.Error("Failed to close booking event publisher", "error", err)
			}
			metrics.LogSnapshot(cfg.Log)
		})
	}
	serverApp.OnShutdown(cfg.GracefulShutdown)

	serverApp.Run()
}

func initEngine(cfg *config.Config, rooms reservation.RoomDirectory, gate reservation.AuthorizationGate, publisher events.Publisher) *reservation.Engine {
	engine := reservation.NewEngine(
		rooms,
		bookingrepository.NewMongoBookingRepository(cfg),
		gate,
		bookingrepository.NewRoomLocker(cfg),
		cfg.Log,
		reservation.Settings{
			PastGrace:       cfg.PastGrace,
			LockWaitTimeout: cfg.LockWaitTimeout,
		},
	)
	if publisher != nil {
		engine.WithPublisher(publisher)
	}

	cfg.Log.Info("Reservation engine initialized",
		"database", cfg.MongoDatabaseName,
		"lock_backend", cfg.LockBackend,
		"events_backend", cfg.EventsBackend,
	)
	return engine
}

func healthDeps(cfg *config.Config) map[string]contracts.Pinger {
	deps := map[string]contracts.Pinger{
		"mongo": contracts.PingFunc(func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, nil)
		}),
	}
	if cfg.Client.Redis != nil {
		deps["redis"] = contracts.PingFunc(func(ctx context.Context) error {
			return cfg.Client.Redis.Ping(ctx).Err()
		})
	}
	return deps
}
