package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/events"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// TokenPair is an access token and the refresh token that renews it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Session is the result of a successful registration, login or refresh.
type Session struct {
	User   *domain.User
	Tokens TokenPair
}

// Service runs the account flows.
type Service struct {
	users     store.UserStore
	jwt       JWTService
	passwords PasswordHasher
	emitter   events.Emitter
	resetTTL  time.Duration
	resetURL  string
	lifetime  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates the account service.
func NewService(
	cfg config.AuthConfig,
	users store.UserStore,
	jwtService JWTService,
	passwords PasswordHasher,
	emitter events.Emitter,
	logger *slog.Logger,
) (*Service, error) {
	if users == nil || jwtService == nil || passwords == nil || emitter == nil {
		return nil, errors.New("auth service dependencies cannot be nil")
	}
	if _, err := url.Parse(cfg.PasswordResetURL); err != nil {
		return nil, fmt.Errorf("invalid password reset url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		users:     users,
		jwt:       jwtService,
		passwords: passwords,
		emitter:   emitter,
		resetTTL:  time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		resetURL:  cfg.PasswordResetURL,
		lifetime:  time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		now:       time.Now,
		logger:    logger.With("component", "auth_service"),
	}, nil
}

// Register creates an account with default preferences, announces it with a
// user.registered event and signs the user in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.setPassword(user, password); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration with existing email", "email", user.Email)
		} else {
			log.Error("failed to create user", "error", err, "email", user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Info("user registered", "user_id", user.ID)

	s.emit(ctx, events.TypeUserRegistered, events.UserRegistered{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})

	return s.session(ctx, user)
}

// Login checks the credentials and issues a token pair. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to get user by email", "error", err)
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		log.Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.session(ctx, user)
}

// Refresh exchanges a valid refresh token for a new pair. Roles are reloaded
// from the store so a promotion takes effect on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.jwt.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load user for refresh: %w", err)
	}

	return s.session(ctx, user)
}

// ForgotPassword stores a fresh reset token for the account and emails the
// reset link. An unknown email is not an error, so callers cannot probe
// which addresses are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, hash, err := NewResetToken()
	if err != nil {
		return err
	}
	user.SetPasswordReset(hash, s.now().Add(s.resetTTL))
	if err := s.users.Update(ctx, user); err != nil {
		log.Error("failed to store reset token", "error", err, "user_id", user.ID)
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link, err := s.resetLink(token)
	if err != nil {
		return err
	}
	s.emit(ctx, events.TypePasswordResetRequested, events.PasswordResetRequested{
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		ResetURL:       link,
		ExpiresMinutes: int(s.resetTTL / time.Minute),
	})
	log.Info("password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token
// and consumes the token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByPasswordResetToken(ctx, HashResetToken(token), s.now())
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if err := s.setPassword(user, newPassword); err != nil {
		return err
	}
	user.ClearPasswordReset()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("password reset completed", "user_id", user.ID)
	return nil
}

// HashPassword validates and hashes a plaintext password.
func (s *Service) HashPassword(password string) (string, error) {
	if err := domain.ValidatePassword(password); err != nil {
		return "", err
	}
	return s.passwords.Hash(password)
}

func (s *Service) setPassword(user *domain.User, password string) error {
	hashed, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	user.HashedPassword = hashed
	user.Password = ""
	return nil
}

func (s *Service) session(ctx context.Context, user *domain.User) (*Session, error) {
	access, err := s.jwt.GenerateToken(ctx, user.ID, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &Session{
		User: user,
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    s.now().Add(s.lifetime).UTC(),
		},
	}, nil
}

func (s *Service) resetLink(token string) (string, error) {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return "", fmt.Errorf("invalid password reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// emit publishes an account event. Delivery problems are logged; the
// account operation itself has already succeeded.
func (s *Service) emit(ctx context.Context, eventType string, payload any) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.New(eventType, payload)
	if err != nil {
		log.Error("failed to build event", "error", err, "event_type", eventType)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit event", "error", err, "event_type", eventType)
	}
}
