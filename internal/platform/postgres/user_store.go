package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

const userColumns = `id, email, name, hashed_password, roles, notification_enabled,
	notification_intervals, notification_type, password_reset_token,
	password_reset_expires, created_at, updated_at`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db      store.DBTX
	logger  *slog.Logger
	typeMap *pgtype.Map
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection or transaction that is managed by the caller.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:      db,
		logger:  logger.With(slog.String("component", "user_store")),
		typeMap: pgtype.NewMap(),
	}
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateStoredUser(user); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("email", user.Email))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, hashed_password, roles, notification_enabled,
			notification_intervals, notification_type, password_reset_token,
			password_reset_expires, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		user.ID,
		user.Email,
		user.Name,
		user.HashedPassword,
		nonNil(user.Roles),
		user.NotificationEnabled,
		nonNil(user.NotificationIntervals),
		string(user.NotificationType),
		nullString(user.PasswordResetToken),
		nullTime(user.PasswordResetExpires),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("email already exists", slog.String("email", user.Email))
			return store.ErrEmailExists
		}
		log.Error("failed to insert user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	log.Debug("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, domain.NormalizeEmail(email))
}

// GetByPasswordResetToken implements store.UserStore.GetByPasswordResetToken
func (s *PostgresUserStore) GetByPasswordResetToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*domain.User, error) {
	if tokenHash == "" {
		return nil, store.ErrUserNotFound
	}
	return s.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE password_reset_token = $1 AND password_reset_expires > $2`,
		tokenHash, now.UTC())
}

// List implements store.UserStore.List
func (s *PostgresUserStore) List(ctx context.Context, filter store.UserFilter) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(`SELECT ` + userColumns + ` FROM users`)
	if filter.NotificationEnabled != nil {
		args = append(args, *filter.NotificationEnabled)
		fmt.Fprintf(&b, " WHERE notification_enabled = $%d", len(args))
	}
	b.WriteString(" ORDER BY created_at ASC, id ASC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			log.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return users, nil
}

// Update implements store.UserStore.Update
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateStoredUser(user); err != nil {
		log.Warn("user validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $1, name = $2, hashed_password = $3, roles = $4,
			notification_enabled = $5, notification_intervals = $6, notification_type = $7,
			password_reset_token = $8, password_reset_expires = $9, updated_at = $10
		WHERE id = $11
	`,
		user.Email,
		user.Name,
		user.HashedPassword,
		nonNil(user.Roles),
		user.NotificationEnabled,
		nonNil(user.NotificationIntervals),
		string(user.NotificationType),
		nullString(user.PasswordResetToken),
		nullTime(user.PasswordResetExpires),
		user.UpdatedAt.UTC(),
		user.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Delete implements store.UserStore.Delete. The user's tasks are removed in
// the same transaction; when the store already wraps a transaction it is reused.
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deleteFn := func(ctx context.Context, db store.DBTX) error {
		removed, err := NewPostgresTaskStore(db, s.logger).deleteByOwner(ctx, id)
		if err != nil {
			return err
		}

		result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
			return err
		}

		log.Info("user deleted",
			slog.String("user_id", id.String()),
			slog.Int64("tasks_removed", removed))
		return nil
	}

	sqlDB, ok := s.db.(*sql.DB)
	if !ok {
		return deleteFn(ctx, s.db)
	}
	return store.RunInTransaction(ctx, sqlDB, func(ctx context.Context, tx *sql.Tx) error {
		return deleteFn(ctx, tx)
	})
}

func (s *PostgresUserStore) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return user, nil
}

func (s *PostgresUserStore) scanUser(row rowScanner) (*domain.User, error) {
	var (
		user             domain.User
		roles            []string
		intervals        []int
		notificationType string
		resetToken       sql.NullString
		resetExpires     sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		s.typeMap.SQLScanner(&roles),
		&user.NotificationEnabled,
		s.typeMap.SQLScanner(&intervals),
		&notificationType,
		&resetToken,
		&resetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Roles = nonNil(roles)
	user.NotificationIntervals = nonNil(intervals)
	user.NotificationType = domain.NotificationType(notificationType)
	user.PasswordResetToken = resetToken.String
	if resetExpires.Valid {
		e := resetExpires.Time.UTC()
		user.PasswordResetExpires = &e
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

// validateStoredUser validates the persisted form of a user, which carries
// only the password hash.
func validateStoredUser(user *domain.User) error {
	check := *user
	check.Password = ""
	return check.Validate()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
