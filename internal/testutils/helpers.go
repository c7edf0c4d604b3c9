package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/require"
)

// TestPassword satisfies the password rules and is used by every fixture user.
const TestPassword = "secret123"

// TestJWTSecret is long enough for the auth configuration validation.
const TestJWTSecret = "test-secret-that-is-long-enough-for-testing"

// placeholderHash stands in for a bcrypt hash where no hashing is under test.
const placeholderHash = "$2a$04$placeholderhashplaceholderhashplaceholderhashplac"

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestAuthConfig returns auth settings with the cheapest bcrypt cost.
func TestAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   TestJWTSecret,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
		BcryptCost:                  4,
		PasswordResetTTLMinutes:     10,
		PasswordResetURL:            "http://localhost:3000/auth/reset-password",
	}
}

// CreateTestUser builds a valid user as a store sees it: the plaintext
// password is cleared and a placeholder hash is set. An empty email gets a
// random one.
func CreateTestUser(t *testing.T, email string) *domain.User {
	t.Helper()
	if email == "" {
		email = fmt.Sprintf("test-%s@example.com", uuid.NewString()[:8])
	}
	user, err := domain.NewUser("Test User", email, TestPassword)
	require.NoError(t, err, "failed to create test user")
	user.Password = ""
	user.HashedPassword = placeholderHash
	return user
}

// TaskOption customizes a task built by CreateTestTask.
type TaskOption func(*domain.Task)

// WithDueDate sets the task due date.
func WithDueDate(due time.Time) TaskOption {
	return func(t *domain.Task) {
		d := due.UTC()
		t.DueDate = &d
	}
}

// WithPriority sets the task priority.
func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) { t.Priority = p }
}

// WithTags sets the task tags.
func WithTags(tags ...string) TaskOption {
	return func(t *domain.Task) { t.Tags = domain.NormalizeTags(tags) }
}

// CreateTestTask builds a valid pending task for owner.
func CreateTestTask(t *testing.T, owner uuid.UUID, title string, opts ...TaskOption) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, title, "", nil, domain.PriorityMedium, nil)
	require.NoError(t, err, "failed to create test task")
	for _, opt := range opts {
		opt(task)
	}
	return task
}

// MustInsertUser creates a test user and stores it.
func MustInsertUser(ctx context.Context, t *testing.T, users store.UserStore, email string) *domain.User {
	t.Helper()
	user := CreateTestUser(t, email)
	require.NoError(t, users.Create(ctx, user), "failed to insert test user")
	return user
}

// MustInsertTask creates a test task and stores it.
func MustInsertTask(
	ctx context.Context,
	t *testing.T,
	tasks store.TaskStore,
	owner uuid.UUID,
	title string,
	opts ...TaskOption,
) *domain.Task {
	t.Helper()
	task := CreateTestTask(t, owner, title, opts...)
	require.NoError(t, tasks.Create(ctx, task), "failed to insert test task")
	return task
}
