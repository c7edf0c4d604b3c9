package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusOverdue   TaskStatus = "overdue"
)

// Priority is the user-assigned importance of a task.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// MaxTaskTitleLength is the longest title accepted for a task.
const MaxTaskTitleLength = 200

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID   = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle    = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong  = fmt.Errorf("task title must be at most %d characters long", MaxTaskTitleLength)
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrOverdueCompleted  = errors.New("a completed task cannot be overdue")
)

// Task is a unit of work owned by exactly one user. DueDate is optional;
// tasks without one are never picked up by the reminder scanners.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a pending, incomplete task for the given owner.
// An empty priority defaults to medium. Tags are normalized.
func NewTask(
	userID uuid.UUID,
	title, description string,
	dueDate *time.Time,
	priority Priority,
	tags []string,
) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		DueDate:     normalizeDueDate(dueDate),
		Priority:    priority,
		Tags:        NormalizeTags(tags),
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}
	if len(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	if t.Status == TaskStatusOverdue && t.Completed {
		return ErrOverdueCompleted
	}
	return nil
}

// SetCompleted flips the completion flag and derives the matching status.
func (t *Task) SetCompleted(completed bool, now time.Time) {
	t.Completed = completed
	if completed {
		t.Status = TaskStatusCompleted
	} else {
		t.Status = TaskStatusPending
	}
	t.UpdatedAt = now.UTC()
}

// Reschedule replaces the due date. An incomplete task goes back to pending
// so the overdue scanner can evaluate the new date on its next run.
func (t *Task) Reschedule(dueDate *time.Time, now time.Time) {
	t.DueDate = normalizeDueDate(dueDate)
	if !t.Completed {
		t.Status = TaskStatusPending
	}
	t.UpdatedAt = now.UTC()
}

// IsOverdueAt reports whether the task should be transitioned to overdue at now.
func (t *Task) IsOverdueAt(now time.Time) bool {
	return !t.Completed &&
		t.Status != TaskStatusOverdue &&
		t.DueDate != nil &&
		t.DueDate.Before(now)
}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusOverdue:
		return true
	default:
		return false
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// NormalizeTags trims each tag, drops empty ones and removes duplicates
// while keeping the first occurrence's position.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func normalizeDueDate(dueDate *time.Time) *time.Time {
	if dueDate == nil {
		return nil
	}
	d := dueDate.UTC()
	return &d
}
