package main

import (
	"context"
	"fmt"
	"os"
	"time"

	mongoMigration "roombook/internal/migrations/mongo"
	roomrepository "roombook/internal/rooms/repository"
	roomservice "roombook/internal/rooms/service"
	roomvalidator "roombook/internal/rooms/validator"
	"roombook/pkg/config"
	"roombook/pkg/model"

	"github.com/spf13/pflag"
)

const JobName = "mongo-migration"

type options struct {
	seedRooms  string
	skipSchema bool
	timeout    time.Duration
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flags.StringVar(&opts.seedRooms, "seed-rooms", "", "YAML file of rooms to upsert after the schema migration")
	flags.BoolVar(&opts.skipSchema, "skip-schema", false, "only seed rooms, leave collections and indexes untouched")
	flags.DurationVar(&opts.timeout, "timeout", 120*time.Second, "overall deadline for the job")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if opts.skipSchema && opts.seedRooms == "" {
		return options{}, fmt.Errorf("--skip-schema without --seed-rooms leaves nothing to do")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.Load(JobName)
	cfg.SetMongo()

	err = run(cfg, opts)
	cfg.GracefulShutdown()
	if err != nil {
		cfg.Log.Error("Migration job failed", "error", err)
		os.Exit(1)
	}
	cfg.Log.Info("Migration completed successfully")
}

func run(cfg *config.Config, opts options) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if !opts.skipSchema {
		cfg.Log.Info("Starting Mongo migration job")
		db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
		if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
			return err
		}
	}

	if opts.seedRooms != "" {
		if err := seedRooms(ctx, cfg, opts.seedRooms); err != nil {
			return fmt.Errorf("seed rooms from %s: %w", opts.seedRooms, err)
		}
	}
	return nil
}

func seedRooms(ctx context.Context, cfg *config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rooms, err := mongoMigration.ParseRoomSeed(f)
	if err != nil {
		return err
	}

	v := roomvalidator.NewRoomValidator(cfg.Log)
	prepare := func(room *model.Room) error {
		roomservice.Sanitize(room)
		if room.ID == "" {
			return fmt.Errorf("room id cannot be derived from name %q", room.Name)
		}
		return v.Validate(room)
	}

	repo := roomrepository.NewMongoRoomRepository(cfg)
	created, updated, err := mongoMigration.SeedRooms(ctx, repo, rooms, prepare, cfg.Log)
	if err != nil {
		return err
	}

	cfg.Log.Info("Rooms seeded", "file", path, "created", created, "updated", updated)
	return nil
}
