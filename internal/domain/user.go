package domain

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Role names understood by the authorization predicate.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// NotificationType selects the channel used for a user's reminders.
type NotificationType string

// Supported notification channels
const (
	NotificationEmail NotificationType = "email"
	NotificationPush  NotificationType = "push"
)

// DefaultNotificationInterval is the reminder lead time, in minutes, given to
// new users: one day before the due date.
const DefaultNotificationInterval = 1440

// MaxNotificationInterval caps a reminder lead time at one year, in minutes.
const MaxNotificationInterval = 525600

// Password length limits. bcrypt ignores anything past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// Common validation errors
var (
	ErrEmptyUserID              = errors.New("user ID cannot be empty")
	ErrInvalidEmail             = errors.New("invalid email format")
	ErrEmptyEmail               = errors.New("email cannot be empty")
	ErrEmptyName                = errors.New("name cannot be empty")
	ErrPasswordTooShort         = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong          = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword            = errors.New("password cannot be empty")
	ErrInvalidNotificationType  = errors.New("invalid notification type")
	ErrInvalidNotificationDelay = errors.New("notification intervals must be positive minutes")
	ErrNotificationDelayTooLong = errors.New("notification intervals must be at most one year")
)

var emailValidator = validator.New()

// User represents a registered account together with its reminder preferences.
type User struct {
	ID                    uuid.UUID        `json:"id"`
	Email                 string           `json:"email"`
	Name                  string           `json:"name"`
	Password              string           `json:"-"` // Plaintext, only set during registration or password change
	HashedPassword        string           `json:"-"`
	Roles                 []string         `json:"roles"`
	NotificationEnabled   bool             `json:"notification_enabled"`
	NotificationIntervals []int            `json:"notification_intervals"`
	NotificationType      NotificationType `json:"notification_type"`
	PasswordResetToken    string           `json:"-"` // sha256 hex of the emailed token
	PasswordResetExpires  *time.Time       `json:"-"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// NewUser creates a user with default role and notification preferences.
// The caller is responsible for hashing Password before the user is stored.
func NewUser(name, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:                    uuid.New(),
		Email:                 NormalizeEmail(email),
		Name:                  strings.TrimSpace(name),
		Password:              password,
		Roles:                 []string{RoleUser},
		NotificationEnabled:   true,
		NotificationIntervals: []int{DefaultNotificationInterval},
		NotificationType:      NotificationEmail,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if emailValidator.Var(u.Email, "email") != nil {
		return ErrInvalidEmail
	}
	if u.Name == "" {
		return ErrEmptyName
	}

	if u.Password != "" {
		if err := ValidatePassword(u.Password); err != nil {
			return err
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	if !u.NotificationType.Valid() {
		return ErrInvalidNotificationType
	}
	return ValidateNotificationIntervals(u.NotificationIntervals)
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// GrantRole adds role if the user does not hold it yet.
// It reports whether the role set changed.
func (u *User) GrantRole(role string, now time.Time) bool {
	if u.HasRole(role) {
		return false
	}
	u.Roles = append(u.Roles, role)
	u.UpdatedAt = now.UTC()
	return true
}

// WantsReminders reports whether due-soon reminders should be computed for the user.
func (u *User) WantsReminders() bool {
	return u.NotificationEnabled && len(u.NotificationIntervals) > 0
}

// SetPasswordReset stores the hashed reset token and its expiry.
func (u *User) SetPasswordReset(tokenHash string, expires time.Time) {
	e := expires.UTC()
	u.PasswordResetToken = tokenHash
	u.PasswordResetExpires = &e
	u.UpdatedAt = time.Now().UTC()
}

// ClearPasswordReset removes any outstanding reset token.
func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
	u.UpdatedAt = time.Now().UTC()
}

// Valid reports whether t is a supported notification channel.
func (t NotificationType) Valid() bool {
	return t == NotificationEmail || t == NotificationPush
}

// ValidatePassword enforces the plaintext password length limits.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return ErrEmptyPassword
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateNotificationIntervals requires every interval to be a positive number of minutes
// no larger than MaxNotificationInterval.
// An empty list is valid and disables due-soon reminders.
func ValidateNotificationIntervals(intervals []int) error {
	for _, minutes := range intervals {
		if minutes <= 0 {
			return ErrInvalidNotificationDelay
		}
		if minutes > MaxNotificationInterval {
			return ErrNotificationDelayTooLong
		}
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
