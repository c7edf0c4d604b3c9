package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/events"
	"github.com/phrazzld/taskpulse-api/internal/notify"
	"github.com/phrazzld/taskpulse-api/internal/scheduler"
	"github.com/phrazzld/taskpulse-api/internal/service"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
)

// application holds the shared dependencies of every command and releases
// them in cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger

	storage *storage

	jwtService     auth.JWTService
	accountService *auth.Service
	taskService    service.TaskService
	userService    *service.UserServiceImpl

	dispatcher notify.Dispatcher
	emitter    *events.InMemoryEmitter
	scheduler  *scheduler.Scheduler
}

// newApplication opens storage and builds the services, the notification
// dispatcher and the scheduler. The scheduler is created but not started.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.storage, err = openStorage(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) initServices() error {
	cfg, logger := app.config, app.logger

	transport, err := notify.NewTransport(cfg.Mail, logger)
	if err != nil {
		return fmt.Errorf("failed to create mail transport: %w", err)
	}
	renderer, err := notify.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}
	dispatcher, err := notify.NewMailDispatcher(transport, renderer, cfg.Mail.From, logger)
	if err != nil {
		return fmt.Errorf("failed to create notification dispatcher: %w", err)
	}
	app.dispatcher = dispatcher

	app.emitter = events.NewInMemoryEmitter(logger)
	app.emitter.RegisterHandler(notify.NewAccountEventHandler(dispatcher))

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	app.accountService, err = auth.NewService(cfg.Auth, app.storage.users, app.jwtService, hasher, app.emitter, logger)
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}
	app.taskService, err = service.NewTaskService(app.storage.tasks, logger)
	if err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}
	app.userService, err = service.NewUserService(app.storage.users, hasher, logger)
	if err != nil {
		return fmt.Errorf("failed to create user service: %w", err)
	}

	app.scheduler = scheduler.New(
		scheduler.ConfigFromSettings(cfg.Scheduler),
		[]scheduler.Scanner{
			scheduler.NewDueSoonScanner(app.storage.tasks, app.storage.users, dispatcher, logger),
			scheduler.NewOverdueScanner(app.storage.tasks, app.storage.users, dispatcher, logger),
		},
		logger,
	)
	return nil
}

// Run serves HTTP and, when enabled, runs the scheduler until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if app.config.Scheduler.Enabled {
		if err := app.scheduler.Start(); err != nil {
			app.cleanup()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		app.logger.Info("scheduler disabled by configuration")
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the scheduler and closes storage. Safe to call more than once.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.storage.close(ctx); err != nil {
			app.logger.Error("error closing storage", slog.String("error", err.Error()))
		}
		app.storage = nil
	}

	app.logger.Info("application shutdown completed")
}
