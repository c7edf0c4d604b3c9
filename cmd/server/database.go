package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/memory"
	"github.com/phrazzld/taskpulse-api/internal/platform/mongodb"
	"github.com/phrazzld/taskpulse-api/internal/platform/postgres"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// storage is an opened storage backend.
type storage struct {
	users store.UserStore
	tasks store.TaskStore
	// db is set for the postgres driver only.
	db    *sql.DB
	close func(ctx context.Context) error
}

// openStorage connects the backend selected by cfg.Database.Driver.
func openStorage(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	log := logger.With(slog.String("database_driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("database connection established")
		return &storage{
			users: postgres.NewPostgresUserStore(db, logger),
			tasks: postgres.NewPostgresTaskStore(db, logger),
			db:    db,
			close: func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info("database connection established", slog.String("database", cfg.MongoDatabase))
		return &storage{
			users: mongodb.NewUserStore(db, logger),
			tasks: mongodb.NewTaskStore(db, logger),
			close: client.Disconnect,
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on exit")
		tasks := memory.NewTaskStore()
		return &storage{
			users: memory.NewUserStore(tasks),
			tasks: tasks,
			close: func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// openPostgres opens a pgx-backed *sql.DB and verifies the connection.
func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is empty")
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(maxOpen/2, 1))
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
