package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/postgres"
	"github.com/pressly/goose/v3"
)

// MigrationTableName is the table goose records applied versions in.
const MigrationTableName = "schema_migrations"

// migrationCommands are the goose commands exposed by the migrate command.
var migrationCommands = []string{"up", "down", "status", "version", "reset"}

// runMigrations runs a goose command against the configured PostgreSQL
// database using the embedded migration files.
func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string) error {
	if !slices.Contains(migrationCommands, command) {
		return fmt.Errorf("unknown migration command %q (want one of %s)",
			command, strings.Join(migrationCommands, ", "))
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations require the %s driver, configured driver is %q",
			config.DriverPostgres, cfg.Database.Driver)
	}

	log := logger.With(
		slog.String("component", "migrations"),
		slog.String("correlation_id", uuid.NewString()),
		slog.String("command", command),
	)
	started := time.Now()
	log.Info("starting migration operation")

	db, err := openPostgres(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()

	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetTableName(MigrationTableName)
	goose.SetBaseFS(postgres.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, postgres.MigrationsDir); err != nil {
		log.Error("migration failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(started)))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration operation completed", slog.Duration("duration", time.Since(started)))
	return nil
}

// slogGooseLogger routes goose output through slog. Fatalf does not exit;
// the error reaches the caller through goose's return value.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
