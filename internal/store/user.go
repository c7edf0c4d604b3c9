package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
)

// UserFilter narrows a user listing. A nil NotificationEnabled matches all users.
type UserFilter struct {
	NotificationEnabled *bool
	Limit               int
	Offset              int
}

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user. Password must already be hashed into HashedPassword.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their (normalized) email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByPasswordResetToken finds the user holding tokenHash whose reset
	// window is still open at now. Returns ErrUserNotFound otherwise.
	GetByPasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)

	// List returns users ordered by creation time.
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)

	// Update modifies an existing user's details.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrEmailExists if updating to an email that already exists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user together with all tasks they own.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
