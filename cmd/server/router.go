package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskpulse-api/internal/api"
	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	apiMiddleware "github.com/phrazzld/taskpulse-api/internal/api/middleware"
)

// setupRouter builds the HTTP handler: standard middleware, the /api routes
// and the health check.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	handlers := api.Handlers{
		Auth:         api.NewAuthHandler(app.accountService, app.logger),
		Tasks:        api.NewTaskHandler(app.taskService, app.logger),
		Users:        api.NewUserHandler(app.userService, app.logger),
		Notification: api.NewNotificationHandler(app.dispatcher, app.logger),
	}
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		api.RegisterRoutes(r, handlers, authMiddleware)
	})

	r.Get("/health", app.handleHealth)

	return r
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: app.config.Database.Driver}

	if app.storage != nil && app.storage.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.storage.db.PingContext(ctx); err != nil {
			app.logger.Error("health check database ping failed", slog.String("error", err.Error()))
			resp.Status = "unavailable"
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, resp)
			return
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
