package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/memory"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTaskService(t *testing.T) TaskService {
	t.Helper()
	svc, err := NewTaskService(memory.NewTaskStore(), discardLogger())
	require.NoError(t, err)
	return svc
}

func principal(roles ...string) domain.Principal {
	if len(roles) == 0 {
		roles = []string{domain.RoleUser}
	}
	return domain.Principal{UserID: uuid.New(), Roles: roles}
}

func ptr[T any](v T) *T { return &v }

func TestTaskServiceOwnership(t *testing.T) {
	t.Parallel()
	svc := newTaskService(t)
	ctx := context.Background()

	owner := principal()
	stranger := principal()
	admin := principal(domain.RoleUser, domain.RoleAdmin)

	task, err := svc.CreateTask(ctx, owner, CreateTaskInput{Title: "Write report"})
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, task.UserID)
	assert.Equal(t, domain.PriorityMedium, task.Priority)

	_, err = svc.GetTask(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, ErrNotOwned)
	_, err = svc.UpdateTask(ctx, stranger, task.ID, UpdateTaskInput{Title: ptr("hijacked")})
	assert.ErrorIs(t, err, ErrNotOwned)
	assert.ErrorIs(t, svc.DeleteTask(ctx, stranger, task.ID), ErrNotOwned)

	got, err := svc.GetTask(ctx, admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)

	require.NoError(t, svc.DeleteTask(ctx, owner, task.ID))
	_, err = svc.GetTask(ctx, owner, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskServiceCreateValidation(t *testing.T) {
	t.Parallel()
	svc := newTaskService(t)

	_, err := svc.CreateTask(context.Background(), principal(), CreateTaskInput{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)

	_, err = svc.CreateTask(context.Background(), principal(), CreateTaskInput{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
}

func TestTaskServiceListIsOwnerScoped(t *testing.T) {
	t.Parallel()
	svc := newTaskService(t)
	ctx := context.Background()

	me := principal()
	other := principal()
	soon := time.Now().Add(time.Hour)
	later := time.Now().Add(2 * time.Hour)

	_, err := svc.CreateTask(ctx, me, CreateTaskInput{Title: "later", DueDate: &later, Tags: []string{"home"}})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, me, CreateTaskInput{Title: "soon", DueDate: &soon, Tags: []string{"work"},
		Priority: domain.PriorityHigh})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, other, CreateTaskInput{Title: "not mine", Tags: []string{"work"}})
	require.NoError(t, err)

	all, err := svc.ListTasks(ctx, me, TaskQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "soon", all[0].Title)
	assert.Equal(t, "later", all[1].Title)

	work, err := svc.ListTasks(ctx, me, TaskQuery{Tags: []string{" work ", "errands"}})
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "soon", work[0].Title)

	high, err := svc.ListTasks(ctx, me, TaskQuery{Priority: ptr(domain.PriorityHigh)})
	require.NoError(t, err)
	assert.Len(t, high, 1)

	page, err := svc.ListTasks(ctx, me, TaskQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "later", page[0].Title)
}

func TestTaskServiceUpdate(t *testing.T) {
	t.Parallel()
	tasks := memory.NewTaskStore()
	svc, err := NewTaskService(tasks, discardLogger())
	require.NoError(t, err)
	ctx := context.Background()
	me := principal()

	past := time.Now().Add(-time.Hour)
	task, err := svc.CreateTask(ctx, me, CreateTaskInput{Title: "late", DueDate: &past})
	require.NoError(t, err)
	_, err = tasks.SetStatus(ctx, task.ID, domain.TaskStatusOverdue)
	require.NoError(t, err)

	future := time.Now().Add(24 * time.Hour)
	updated, err := svc.UpdateTask(ctx, me, task.ID, UpdateTaskInput{
		DueDate: &future,
		Tags:    &[]string{"a", "a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, updated.Status, "rescheduling clears overdue")
	assert.Equal(t, []string{"a", "b"}, updated.Tags)
	assert.WithinDuration(t, future, *updated.DueDate, time.Second)

	done, err := svc.UpdateTask(ctx, me, task.ID, UpdateTaskInput{Completed: ptr(true), ClearDueDate: true})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, domain.TaskStatusCompleted, done.Status)
	assert.Nil(t, done.DueDate)

	stored, err := svc.GetTask(ctx, me, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)

	_, err = svc.UpdateTask(ctx, me, task.ID, UpdateTaskInput{Title: ptr("")})
	assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
}

func TestTaskServiceSummary(t *testing.T) {
	t.Parallel()
	tasks := memory.NewTaskStore()
	svc, err := NewTaskService(tasks, discardLogger())
	require.NoError(t, err)
	ctx := context.Background()
	me := principal()

	a, err := svc.CreateTask(ctx, me, CreateTaskInput{Title: "a"})
	require.NoError(t, err)
	b, err := svc.CreateTask(ctx, me, CreateTaskInput{Title: "b"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, me, CreateTaskInput{Title: "c"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, me, a.ID, UpdateTaskInput{Completed: ptr(true)})
	require.NoError(t, err)
	_, err = tasks.SetStatus(ctx, b.ID, domain.TaskStatusOverdue)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, &TaskSummary{Total: 3, Pending: 1, Completed: 1, Overdue: 1}, summary)
}

func TestNewTaskServiceRequiresStore(t *testing.T) {
	_, err := NewTaskService(nil, nil)
	assert.Error(t, err)
}
