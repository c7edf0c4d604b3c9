package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// UpdateUserInput is a partial profile update; nil fields are left unchanged.
// Roles may only be set by an admin.
type UpdateUserInput struct {
	Name                  *string
	Email                 *string
	Password              *string
	NotificationEnabled   *bool
	NotificationIntervals *[]int
	NotificationType      *domain.NotificationType
	Roles                 *[]string
}

// UserService provides user operations on behalf of an authenticated principal.
type UserService interface {
	// GetUser returns a user the caller may access (self, or anyone for admins).
	GetUser(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.User, error)

	// ListUsers lists all users. Admin only.
	ListUsers(ctx context.Context, p domain.Principal, limit, offset int) ([]*domain.User, error)

	// UpdateUser applies a partial update to a user the caller may access.
	UpdateUser(ctx context.Context, p domain.Principal, id uuid.UUID, in UpdateUserInput) (*domain.User, error)

	// DeleteUser removes a user and their tasks. Admin only.
	DeleteUser(ctx context.Context, p domain.Principal, id uuid.UUID) error

	// PromoteToAdmin grants the admin role to the user with the given email.
	// It reports whether the user was promoted (false when already an admin).
	PromoteToAdmin(ctx context.Context, email string) (*domain.User, bool, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users     store.UserStore
	passwords auth.PasswordHasher
	now       func() time.Time
	logger    *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService
func NewUserService(users store.UserStore, passwords auth.PasswordHasher, logger *slog.Logger) (*UserServiceImpl, error) {
	if users == nil || passwords == nil {
		return nil, fmt.Errorf("user service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		users:     users,
		passwords: passwords,
		now:       time.Now,
		logger:    logger.With("component", "user_service"),
	}, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.User, error) {
	if !p.CanAccess(id) {
		return nil, ErrNotOwned
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user",
				"error", err,
				"user_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// ListUsers returns users ordered by creation time.
func (s *UserServiceImpl) ListUsers(ctx context.Context, p domain.Principal, limit, offset int) ([]*domain.User, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}

	users, err := s.users.List(ctx, store.UserFilter{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser retrieves the full user, applies the changed fields and writes
// the complete user back.
func (s *UserServiceImpl) UpdateUser(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	in UpdateUserInput,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if in.Roles != nil && !p.IsAdmin() {
		return nil, ErrForbidden
	}
	user, err := s.GetUser(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = domain.NormalizeEmail(*in.Email)
	}
	if in.NotificationEnabled != nil {
		user.NotificationEnabled = *in.NotificationEnabled
	}
	if in.NotificationIntervals != nil {
		user.NotificationIntervals = append([]int{}, *in.NotificationIntervals...)
	}
	if in.NotificationType != nil {
		user.NotificationType = *in.NotificationType
	}
	if in.Roles != nil {
		if err := validateRoles(*in.Roles); err != nil {
			return nil, err
		}
		user.Roles = append([]string{}, *in.Roles...)
	}
	if in.Password != nil {
		if err := domain.ValidatePassword(*in.Password); err != nil {
			return nil, err
		}
		hashed, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		user.HashedPassword = hashed
	}
	user.UpdatedAt = s.now().UTC()

	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to update to an existing email", "user_id", id)
		} else {
			log.Error("failed to update user", "error", err, "user_id", id)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("user updated", "user_id", id, "by", p.UserID)
	return user, nil
}

// DeleteUser deletes a user by their ID; the store removes their tasks too.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete user",
				"error", err,
				"user_id", id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("user deleted", "user_id", id, "by", p.UserID)
	return nil
}

// PromoteToAdmin grants the admin role by email.
func (s *UserServiceImpl) PromoteToAdmin(ctx context.Context, email string) (*domain.User, bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find user %q: %w", domain.NormalizeEmail(email), err)
	}

	if !user.GrantRole(domain.RoleAdmin, s.now()) {
		return user, false, nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to save admin role: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("user promoted to admin", "user_id", user.ID)
	return user, true, nil
}

func validateRoles(roles []string) error {
	if len(roles) == 0 {
		return domain.NewValidationError("roles", "at least one role is required", domain.ErrValidation)
	}
	for _, role := range roles {
		if role != domain.RoleUser && role != domain.RoleAdmin {
			return domain.NewValidationError("roles", fmt.Sprintf("unknown role %q", role), domain.ErrValidation)
		}
	}
	return nil
}
