package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/service"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired refresh token", auth.ErrExpiredRefreshToken, http.StatusUnauthorized},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"bad reset token", auth.ErrInvalidResetToken, http.StatusUnauthorized},
		{"not owned", service.ErrNotOwned, http.StatusForbidden},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"wrapped task not found", fmt.Errorf("failed to get task: %w", store.ErrTaskNotFound), http.StatusNotFound},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"email exists", fmt.Errorf("failed to create user: %w", store.ErrEmailExists), http.StatusConflict},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"empty title", domain.ErrEmptyTaskTitle, http.StatusBadRequest},
		{"bad priority", domain.ErrInvalidPriority, http.StatusBadRequest},
		{"short password", domain.ErrPasswordTooShort, http.StatusBadRequest},
		{"field validation", domain.NewValidationError("roles", "is required", nil), http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"expired token", auth.ErrExpiredToken, "Token expired"},
		{"wrong token type", auth.ErrWrongTokenType, "Invalid refresh token"},
		{"not owned", service.ErrNotOwned, "You do not have access to this resource"},
		{"task not found", store.ErrTaskNotFound, "Task not found"},
		{"generic not found", store.ErrNotFound, "Resource not found"},
		{"email exists", store.ErrEmailExists, "Email already exists"},
		{"wrapped client error", fmt.Errorf("create: %w", domain.ErrInvalidNotificationType), "Invalid notification type"},
		{"field validation", domain.NewValidationError("limit", "must be a positive integer", nil), "Limit must be a positive integer"},
		{"invalid entity", store.ErrInvalidEntity, "Invalid entity data"},
		{"internal details", errors.New("pq: password=hunter2 at /var/lib/db"), "An unexpected error occurred"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	err := validateStruct(RegisterRequest{Name: "Ada", Email: "nope", Password: "secret123"})
	assert.Equal(t, "Invalid email: invalid email format", SanitizeValidationError(err))

	err = validateStruct(CreateTaskRequest{})
	assert.Equal(t, "Invalid title: required field", SanitizeValidationError(err))

	assert.Equal(t, "Task title cannot be empty", SanitizeValidationError(domain.ErrEmptyTaskTitle))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("Key: 'X' Error: secret")))
}
