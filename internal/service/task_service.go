package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    domain.Priority
	Tags        []string
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
// ClearDueDate removes the due date and wins over DueDate.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *domain.Priority
	Tags         *[]string
	Completed    *bool
}

// TaskQuery filters the caller's task list.
type TaskQuery struct {
	Tags      []string
	Status    *domain.TaskStatus
	Priority  *domain.Priority
	Completed *bool
	Limit     int
	Offset    int
}

// TaskSummary counts the caller's tasks per status.
type TaskSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

// TaskService provides task operations on behalf of an authenticated principal.
type TaskService interface {
	CreateTask(ctx context.Context, p domain.Principal, in CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Task, error)
	ListTasks(ctx context.Context, p domain.Principal, q TaskQuery) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, p domain.Principal, id uuid.UUID, in UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, p domain.Principal, id uuid.UUID) error
	Summary(ctx context.Context, p domain.Principal) (*TaskSummary, error)
}

type taskServiceImpl struct {
	tasks  store.TaskStore
	now    func() time.Time
	logger *slog.Logger
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a TaskService.
func NewTaskService(tasks store.TaskStore, logger *slog.Logger) (TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:  tasks,
		now:    time.Now,
		logger: logger.With("component", "task_service"),
	}, nil
}

// CreateTask creates a task owned by the caller.
func (s *taskServiceImpl) CreateTask(ctx context.Context, p domain.Principal, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(p.UserID, in.Title, in.Description, in.DueDate, in.Priority, in.Tags)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task", "error", err, "user_id", p.UserID)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Debug("task created", "task_id", task.ID, "user_id", p.UserID)
	return task, nil
}

// GetTask returns a task the caller may access.
func (s *taskServiceImpl) GetTask(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Task, error) {
	return s.accessibleTask(ctx, p, id)
}

// ListTasks returns the caller's own tasks, soonest due first.
func (s *taskServiceImpl) ListTasks(ctx context.Context, p domain.Principal, q TaskQuery) ([]*domain.Task, error) {
	owner := p.UserID
	tasks, err := s.tasks.Find(ctx, store.TaskFilter{
		OwnerID:   &owner,
		Completed: q.Completed,
		Status:    q.Status,
		Priority:  q.Priority,
		Tags:      domain.NormalizeTags(q.Tags),
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			"error", err,
			"user_id", p.UserID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update. Toggling completion derives the
// status; a new due date puts an overdue task back to pending.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	in UpdateTaskInput,
) (*domain.Task, error) {
	task, err := s.accessibleTask(ctx, p, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Tags != nil {
		task.Tags = domain.NormalizeTags(*in.Tags)
	}
	switch {
	case in.ClearDueDate:
		task.Reschedule(nil, now)
	case in.DueDate != nil:
		task.Reschedule(in.DueDate, now)
	}
	if in.Completed != nil {
		task.SetCompleted(*in.Completed, now)
	}
	task.UpdatedAt = now.UTC()

	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			"error", err,
			"task_id", id)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task the caller may access.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if _, err := s.accessibleTask(ctx, p, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("task deleted", "task_id", id, "user_id", p.UserID)
	return nil
}

// Summary counts the caller's tasks per status.
func (s *taskServiceImpl) Summary(ctx context.Context, p domain.Principal) (*TaskSummary, error) {
	counts, err := s.tasks.CountByStatus(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	summary := &TaskSummary{
		Pending:   counts[domain.TaskStatusPending],
		Completed: counts[domain.TaskStatusCompleted],
		Overdue:   counts[domain.TaskStatusOverdue],
	}
	summary.Total = summary.Pending + summary.Completed + summary.Overdue
	return summary, nil
}

func (s *taskServiceImpl) accessibleTask(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !p.CanAccess(task.UserID) {
		logger.FromContextOrDefault(ctx, s.logger).Debug("task access denied",
			"task_id", id,
			"owner_id", task.UserID,
			"user_id", p.UserID)
		return nil, ErrNotOwned
	}
	return task, nil
}
