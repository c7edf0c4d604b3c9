package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset with the emailed token.
type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	User UserResponse `json:"user"`

	// AccessToken is the JWT sent as "Authorization: Bearer <token>".
	AccessToken string `json:"token"`

	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the RFC 3339 time at which the access token expires.
	ExpiresAt string `json:"expires_at"`
}

// UserResponse is the public view of a user. Credentials and reset tokens
// are never included.
type UserResponse struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Roles                 []string  `json:"roles"`
	NotificationEnabled   bool      `json:"notification_enabled"`
	NotificationIntervals []int     `json:"notification_intervals"`
	NotificationType      string    `json:"notification_type"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// UpdateUserRequest is a partial user update. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Name                  *string   `json:"name"                   validate:"omitempty,min=1,max=100"`
	Email                 *string   `json:"email"                  validate:"omitempty,email"`
	Password              *string   `json:"password"               validate:"omitempty,min=6,max=72"`
	NotificationEnabled   *bool     `json:"notification_enabled"`
	NotificationIntervals *[]int    `json:"notification_intervals" validate:"omitempty,dive,gt=0,lte=525600"`
	NotificationType      *string   `json:"notification_type"      validate:"omitempty,oneof=email push"`
	Roles                 *[]string `json:"roles"                  validate:"omitempty,dive,oneof=user admin"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Tags        []string   `json:"tags"        validate:"max=20,dive,max=50"`
}

// UpdateTaskRequest is a partial task update. Sending "due_date": null
// removes the due date; omitting it leaves the due date unchanged.
type UpdateTaskRequest struct {
	Title       *string      `json:"title"       validate:"omitempty,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
	DueDate     NullableTime `json:"due_date"`
	Priority    *string      `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Tags        *[]string    `json:"tags"        validate:"omitempty,max=20,dive,max=50"`
	Completed   *bool        `json:"completed"`
}

// NullableTime distinguishes an absent JSON field from an explicit null.
type NullableTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the
// field is present, so Set records presence.
func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	n.Value = &t
	return nil
}

// TaskResponse is the API view of a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskListResponse wraps a page of tasks.
type TaskListResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Users  []UserResponse `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// SendEmailRequest asks the dispatcher to send one templated email.
type SendEmailRequest struct {
	To       string         `json:"to"       validate:"required,email"`
	Subject  string         `json:"subject"  validate:"required,max=200"`
	Template string         `json:"template" validate:"required"`
	Data     map[string]any `json:"data"`
}

func userToResponse(u *domain.User) UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	intervals := u.NotificationIntervals
	if intervals == nil {
		intervals = []int{}
	}
	return UserResponse{
		ID:                    u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		Roles:                 roles,
		NotificationEnabled:   u.NotificationEnabled,
		NotificationIntervals: intervals,
		NotificationType:      string(u.NotificationType),
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func taskToResponse(t *domain.Task) TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Tags:        tags,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func sessionToResponse(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         userToResponse(s.User),
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
		ExpiresAt:    s.Tokens.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
