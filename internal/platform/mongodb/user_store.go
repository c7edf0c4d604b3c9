package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore implements store.UserStore on the users collection.
type UserStore struct {
	users   *mongo.Collection
	tasks   *mongo.Collection
	logger  *slog.Logger
	timeout time.Duration
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore on db.
func NewUserStore(db *mongo.Database, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		users:   db.Collection(UsersCollection),
		tasks:   db.Collection(TasksCollection),
		logger:  logger.With(slog.String("component", "mongo_user_store")),
		timeout: DefaultOperationTimeout,
	}
}

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := validateStoredUser(user); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.users.InsertOne(ctx, newUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateError(err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

// GetByPasswordResetToken implements store.UserStore.GetByPasswordResetToken.
func (s *UserStore) GetByPasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	if tokenHash == "" {
		return nil, store.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": bson.M{"$gt": now.UTC()},
	})
}

// List implements store.UserStore.List.
func (s *UserStore) List(ctx context.Context, filter store.UserFilter) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, opts := userQuery(filter)
	cursor, err := s.users.Find(ctx, query, opts)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(docs))
	for _, doc := range docs {
		user, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Update implements store.UserStore.Update.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := validateStoredUser(user); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := newUserDocument(user)
	result, err := s.users.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{
		"email":                  doc.Email,
		"name":                   doc.Name,
		"hashed_password":        doc.HashedPassword,
		"roles":                  doc.Roles,
		"notification_enabled":   doc.NotificationEnabled,
		"notification_intervals": doc.NotificationIntervals,
		"notification_type":      doc.NotificationType,
		"password_reset_token":   doc.PasswordResetToken,
		"password_reset_expires": doc.PasswordResetExpires,
		"updated_at":             doc.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateError(err)
		}
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// Delete implements store.UserStore.Delete. The user document goes first so a
// missing user is reported before any task is touched.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.users.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrUserNotFound
	}

	removed, err := s.tasks.DeleteMany(ctx, bson.M{"user_id": id.String()})
	if err != nil {
		log.Error("user deleted but removing their tasks failed",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return err
	}

	log.Info("user deleted",
		slog.String("user_id", id.String()),
		slog.Int64("tasks_removed", removed.DeletedCount))
	return nil
}

func (s *UserStore) findOne(ctx context.Context, query bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc userDocument
	if err := s.users.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user",
			slog.String("error", err.Error()))
		return nil, err
	}
	return doc.toDomain()
}

// duplicateError tells an email collision apart from a reused _id.
func duplicateError(err error) error {
	if strings.Contains(err.Error(), "email") {
		return store.ErrEmailExists
	}
	return store.ErrDuplicate
}

func validateStoredUser(user *domain.User) error {
	check := *user
	check.Password = ""
	return check.Validate()
}
