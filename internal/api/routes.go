package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskpulse-api/internal/api/middleware"
	"github.com/phrazzld/taskpulse-api/internal/domain"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth         *AuthHandler
	Tasks        *TaskHandler
	Users        *UserHandler
	Notification *NotificationHandler
}

// RegisterRoutes mounts the API endpoints on r. Auth endpoints are public;
// everything else requires a bearer token, and the user administration and
// notification endpoints additionally require the admin role.
func RegisterRoutes(r chi.Router, h Handlers, authn *middleware.AuthMiddleware) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.RefreshToken)
		r.Post("/forgot-password", h.Auth.ForgotPassword)
		r.Post("/reset-password", h.Auth.ResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.Tasks.ListTasks)
			r.Post("/", h.Tasks.CreateTask)
			r.Get("/summary", h.Tasks.Summary)
			r.Get("/{id}", h.Tasks.GetTask)
			r.Patch("/{id}", h.Tasks.UpdateTask)
			r.Delete("/{id}", h.Tasks.DeleteTask)
		})

		r.Get("/users/me", h.Users.GetMe)
		r.Patch("/users/me", h.Users.UpdateMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Get("/users", h.Users.ListUsers)
			r.Get("/users/{id}", h.Users.GetUser)
			r.Patch("/users/{id}", h.Users.UpdateUser)
			r.Delete("/users/{id}", h.Users.DeleteUser)

			r.Post("/notification/email", h.Notification.SendEmail)
		})
	})
}
