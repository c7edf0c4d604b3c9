package store

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
)

// TaskFilter selects tasks. Nil fields and empty slices match everything.
// Any due-date bound excludes tasks without a due date.
type TaskFilter struct {
	OwnerID *uuid.UUID

	// DueAfter is an exclusive lower bound on the due date.
	DueAfter *time.Time
	// DueAtOrBefore is an inclusive upper bound on the due date.
	DueAtOrBefore *time.Time
	// DueBefore is an exclusive upper bound on the due date.
	DueBefore *time.Time

	Completed *bool
	Status    *domain.TaskStatus
	StatusNot *domain.TaskStatus
	Priority  *domain.Priority

	// Tags matches tasks carrying at least one of the given tags.
	Tags []string

	Limit  int
	Offset int
}

// HasDueBound reports whether the filter constrains the due date.
func (f TaskFilter) HasDueBound() bool {
	return f.DueAfter != nil || f.DueAtOrBefore != nil || f.DueBefore != nil
}

// Matches evaluates the filter against a single task, ignoring Limit and Offset.
func (f TaskFilter) Matches(t *domain.Task) bool {
	if f.OwnerID != nil && t.UserID != *f.OwnerID {
		return false
	}
	if f.HasDueBound() {
		if t.DueDate == nil {
			return false
		}
		due := *t.DueDate
		if f.DueAfter != nil && !due.After(*f.DueAfter) {
			return false
		}
		if f.DueAtOrBefore != nil && due.After(*f.DueAtOrBefore) {
			return false
		}
		if f.DueBefore != nil && !due.Before(*f.DueBefore) {
			return false
		}
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.StatusNot != nil && t.Status == *f.StatusNot {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, func(tag string) bool {
		return slices.Contains(t.Tags, tag)
	}) {
		return false
	}
	return true
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task. Returns domain validation errors if the task is invalid
	// and ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update replaces all mutable fields of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Find returns the tasks matching filter, ordered by due date (tasks
	// without a due date last) and then by creation time.
	Find(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// SetStatus persists a new status for a task and returns the updated task.
	// Returns ErrTaskNotFound if the task does not exist and
	// domain.ErrOverdueCompleted if status is overdue and the task has been
	// completed in the meantime; the stored task is left unchanged then.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error)

	// CountByStatus returns the number of tasks per status for one owner.
	CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[domain.TaskStatus]int, error)
}
