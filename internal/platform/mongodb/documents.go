package mongodb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
)

type taskDocument struct {
	ID          string     `bson:"_id"`
	UserID      string     `bson:"user_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Completed   bool       `bson:"completed"`
	DueDate     *time.Time `bson:"due_date"`
	NoDueDate   bool       `bson:"no_due_date"` // sort key that puts undated tasks last
	Priority    string     `bson:"priority"`
	Tags        []string   `bson:"tags"`
	Status      string     `bson:"status"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

type userDocument struct {
	ID                    string     `bson:"_id"`
	Email                 string     `bson:"email"`
	Name                  string     `bson:"name"`
	HashedPassword        string     `bson:"hashed_password"`
	Roles                 []string   `bson:"roles"`
	NotificationEnabled   bool       `bson:"notification_enabled"`
	NotificationIntervals []int      `bson:"notification_intervals"`
	NotificationType      string     `bson:"notification_type"`
	PasswordResetToken    string     `bson:"password_reset_token"`
	PasswordResetExpires  *time.Time `bson:"password_reset_expires"`
	CreatedAt             time.Time  `bson:"created_at"`
	UpdatedAt             time.Time  `bson:"updated_at"`
}

func newTaskDocument(t *domain.Task) taskDocument {
	doc := taskDocument{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueDate:     utcPtr(t.DueDate),
		NoDueDate:   t.DueDate == nil,
		Priority:    string(t.Priority),
		Tags:        t.Tags,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc
}

func (d taskDocument) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid task _id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid task user_id %q: %w", d.UserID, err)
	}

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Task{
		ID:          id,
		UserID:      userID,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		DueDate:     utcPtr(d.DueDate),
		Priority:    domain.Priority(d.Priority),
		Tags:        tags,
		Status:      domain.TaskStatus(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

func newUserDocument(u *domain.User) userDocument {
	doc := userDocument{
		ID:                    u.ID.String(),
		Email:                 u.Email,
		Name:                  u.Name,
		HashedPassword:        u.HashedPassword,
		Roles:                 u.Roles,
		NotificationEnabled:   u.NotificationEnabled,
		NotificationIntervals: u.NotificationIntervals,
		NotificationType:      string(u.NotificationType),
		PasswordResetToken:    u.PasswordResetToken,
		PasswordResetExpires:  utcPtr(u.PasswordResetExpires),
		CreatedAt:             u.CreatedAt.UTC(),
		UpdatedAt:             u.UpdatedAt.UTC(),
	}
	if doc.Roles == nil {
		doc.Roles = []string{}
	}
	if doc.NotificationIntervals == nil {
		doc.NotificationIntervals = []int{}
	}
	return doc
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user _id %q: %w", d.ID, err)
	}

	user := &domain.User{
		ID:                    id,
		Email:                 d.Email,
		Name:                  d.Name,
		HashedPassword:        d.HashedPassword,
		Roles:                 d.Roles,
		NotificationEnabled:   d.NotificationEnabled,
		NotificationIntervals: d.NotificationIntervals,
		NotificationType:      domain.NotificationType(d.NotificationType),
		PasswordResetToken:    d.PasswordResetToken,
		PasswordResetExpires:  utcPtr(d.PasswordResetExpires),
		CreatedAt:             d.CreatedAt.UTC(),
		UpdatedAt:             d.UpdatedAt.UTC(),
	}
	if user.Roles == nil {
		user.Roles = []string{}
	}
	if user.NotificationIntervals == nil {
		user.NotificationIntervals = []int{}
	}
	return user, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
