package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// MockUserStore implements store.UserStore for testing. Methods call the
// matching Fn field when set and otherwise delegate to Store.
type MockUserStore struct {
	CreateFn                  func(ctx context.Context, user *domain.User) error
	GetByIDFn                 func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFn              func(ctx context.Context, email string) (*domain.User, error)
	GetByPasswordResetTokenFn func(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	ListFn                    func(ctx context.Context, filter store.UserFilter) ([]*domain.User, error)
	UpdateFn                  func(ctx context.Context, user *domain.User) error
	DeleteFn                  func(ctx context.Context, id uuid.UUID) error

	// Store handles every call without an Fn override.
	Store store.UserStore
}

var _ store.UserStore = (*MockUserStore)(nil)

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return m.Store.Create(ctx, user)
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return m.Store.GetByID(ctx, id)
}

// GetByEmail implements the UserStore interface
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return m.Store.GetByEmail(ctx, email)
}

// GetByPasswordResetToken implements the UserStore interface
func (m *MockUserStore) GetByPasswordResetToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*domain.User, error) {
	if m.GetByPasswordResetTokenFn != nil {
		return m.GetByPasswordResetTokenFn(ctx, tokenHash, now)
	}
	return m.Store.GetByPasswordResetToken(ctx, tokenHash, now)
}

// List implements the UserStore interface
func (m *MockUserStore) List(ctx context.Context, filter store.UserFilter) ([]*domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return m.Store.List(ctx, filter)
}

// Update implements the UserStore interface
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	return m.Store.Update(ctx, user)
}

// Delete implements the UserStore interface
func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return m.Store.Delete(ctx, id)
}
