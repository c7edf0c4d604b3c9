package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration and installs the application logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.Setup(cfg.Server)
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("mail_transport", cfg.Mail.Transport))
	return cfg, log, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the notification scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <up|down|status|version|reset>",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or inspect the embedded goose migrations. Only the postgres
database driver has a schema; the mongo backend creates its indexes on start.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: migrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg, log, args[0])
		},
	}
	return cmd
}

func newPromoteAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote-admin <email>",
		Short: "Grant the admin role to an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.cleanup()

			msg, err := app.promoteAdmin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run the due-soon and overdue scanners once and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.cleanup()

			report := app.scheduler.RunOnce(cmd.Context(), time.Now())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("failed to write scan report: %w", err)
			}
			if report.Failed() {
				return fmt.Errorf("%d scanner(s) failed", len(report.Errors))
			}
			return nil
		},
	}
}

// promoteAdmin grants the admin role to the user registered under email and
// returns a line describing the outcome.
func (app *application) promoteAdmin(ctx context.Context, email string) (string, error) {
	user, changed, err := app.userService.PromoteToAdmin(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to promote %s: %w", email, err)
	}
	if !changed {
		return fmt.Sprintf("%s is already an admin", user.Email), nil
	}
	app.logger.Info("user promoted to admin", slog.String("user_id", user.ID.String()))
	return fmt.Sprintf("%s is now an admin", user.Email), nil
}
