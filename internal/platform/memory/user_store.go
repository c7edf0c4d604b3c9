package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// UserStore keeps users in memory. Deleting a user also removes their tasks
// from the linked TaskStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
	tasks *TaskStore
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates an empty UserStore. tasks may be nil when no task
// store needs to follow user deletions.
func NewUserStore(tasks *TaskStore) *UserStore {
	return &UserStore{
		users: make(map[uuid.UUID]*domain.User),
		tasks: tasks,
	}
}

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := validateStoredUser(user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return store.ErrDuplicate
	}
	if s.emailTakenLocked(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByPasswordResetToken implements store.UserStore.GetByPasswordResetToken.
func (s *UserStore) GetByPasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	if tokenHash == "" {
		return nil, store.ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.PasswordResetToken == tokenHash &&
			user.PasswordResetExpires != nil &&
			user.PasswordResetExpires.After(now) {
			return cloneUser(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// List implements store.UserStore.List.
func (s *UserStore) List(ctx context.Context, filter store.UserFilter) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		if filter.NotificationEnabled != nil && user.NotificationEnabled != *filter.NotificationEnabled {
			continue
		}
		users = append(users, cloneUser(user))
	}
	s.mu.RUnlock()

	slices.SortFunc(users, func(a, b *domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return paginate(users, filter.Limit, filter.Offset), nil
}

// Update implements store.UserStore.Update.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := validateStoredUser(user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	if s.emailTakenLocked(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	updated := cloneUser(user)
	updated.CreatedAt = existing.CreatedAt
	s.users[user.ID] = updated
	return nil
}

// Delete implements store.UserStore.Delete.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.users[id]; !ok {
		s.mu.Unlock()
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	s.mu.Unlock()

	if s.tasks != nil {
		s.tasks.deleteByOwner(id)
	}
	return nil
}

func (s *UserStore) emailTakenLocked(email string, except uuid.UUID) bool {
	for id, user := range s.users {
		if id != except && user.Email == email {
			return true
		}
	}
	return false
}

// validateStoredUser checks a user the way persistent backends see it:
// the plaintext password is never stored, only its hash.
func validateStoredUser(user *domain.User) error {
	check := *user
	check.Password = ""
	return check.Validate()
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Password = ""
	c.Roles = slices.Clone(u.Roles)
	c.NotificationIntervals = slices.Clone(u.NotificationIntervals)
	if u.PasswordResetExpires != nil {
		e := *u.PasswordResetExpires
		c.PasswordResetExpires = &e
	}
	return &c
}
