package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/service"
)

// UserHandler serves the caller's own profile and the admin user endpoints.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if users == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("user service cannot be nil for UserHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}
	h.get(w, r, p, p.UserID)
}

// UpdateMe handles PATCH /users/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}
	h.update(w, r, p, p.UserID)
}

// ListUsers handles GET /users (admin).
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	limit, offset, err := parsePaging(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	users, err := h.users.ListUsers(r.Context(), p, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}

	resp := UserListResponse{
		Users:  make([]UserResponse, 0, len(users)),
		Limit:  limit,
		Offset: offset,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, userToResponse(u))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetUser handles GET /users/{id} (admin).
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	p, id, ok := handlePrincipalAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}
	h.get(w, r, p, id)
}

// UpdateUser handles PATCH /users/{id} (admin).
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	p, id, ok := handlePrincipalAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}
	h.update(w, r, p, id)
}

// DeleteUser handles DELETE /users/{id} (admin). The user's tasks are removed too.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, id, ok := handlePrincipalAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), p, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request, p domain.Principal, id uuid.UUID) {
	user, err := h.users.GetUser(r.Context(), p, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, p domain.Principal, id uuid.UUID) {
	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req, logger.FromContextOrDefault(r.Context(), h.logger)) {
		return
	}

	in := service.UpdateUserInput{
		Name:                  req.Name,
		Email:                 req.Email,
		Password:              req.Password,
		NotificationEnabled:   req.NotificationEnabled,
		NotificationIntervals: req.NotificationIntervals,
		Roles:                 req.Roles,
	}
	if req.NotificationType != nil {
		nt := domain.NotificationType(*req.NotificationType)
		in.NotificationType = &nt
	}

	user, err := h.users.UpdateUser(r.Context(), p, id, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}
