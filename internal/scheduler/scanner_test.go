package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/mocks"
	"github.com/phrazzld/taskpulse-api/internal/notify"
	"github.com/phrazzld/taskpulse-api/internal/platform/memory"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyTaskStore injects failures into an otherwise working task store.
type flakyTaskStore struct {
	store.TaskStore
	failFindFor     *uuid.UUID
	setStatusErr    error
	beforeSetStatus func(id uuid.UUID)
}

func (f *flakyTaskStore) Find(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	if f.failFindFor != nil && filter.OwnerID != nil && *filter.OwnerID == *f.failFindFor {
		return nil, errors.New("connection reset")
	}
	return f.TaskStore.Find(ctx, filter)
}

func (f *flakyTaskStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	if f.setStatusErr != nil {
		return nil, f.setStatusErr
	}
	if f.beforeSetStatus != nil {
		f.beforeSetStatus(id)
	}
	return f.TaskStore.SetStatus(ctx, id, status)
}

type fixture struct {
	now        time.Time
	tasks      *memory.TaskStore
	users      *memory.UserStore
	taskStore  *flakyTaskStore
	dispatcher *mocks.MockDispatcher
	dueSoon    *DueSoonScanner
	overdue    *OverdueScanner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tasks := memory.NewTaskStore()
	f := &fixture{
		now:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		tasks:      tasks,
		users:      memory.NewUserStore(tasks),
		taskStore:  &flakyTaskStore{TaskStore: tasks},
		dispatcher: &mocks.MockDispatcher{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.dueSoon = NewDueSoonScanner(f.taskStore, f.users, f.dispatcher, log)
	f.overdue = NewOverdueScanner(f.taskStore, f.users, f.dispatcher, log)
	return f
}

func (f *fixture) addUser(t *testing.T, email string, intervals ...int) *domain.User {
	t.Helper()
	user, err := domain.NewUser("User "+email, email, "secret1")
	require.NoError(t, err)
	user.Password = ""
	user.HashedPassword = "hashed"
	if len(intervals) > 0 {
		user.NotificationIntervals = intervals
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) updateUser(t *testing.T, user *domain.User) {
	t.Helper()
	require.NoError(t, f.users.Update(context.Background(), user))
}

func (f *fixture) addTask(t *testing.T, owner uuid.UUID, title string, dueIn time.Duration) *domain.Task {
	t.Helper()
	due := f.now.Add(dueIn)
	task, err := domain.NewTask(owner, title, "", &due, domain.PriorityMedium, nil)
	require.NoError(t, err)
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func (f *fixture) completeTask(t *testing.T, task *domain.Task) {
	t.Helper()
	task.SetCompleted(true, f.now)
	require.NoError(t, f.tasks.Update(context.Background(), task))
}

func (f *fixture) status(t *testing.T, id uuid.UUID) domain.TaskStatus {
	t.Helper()
	task, err := f.tasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	return task.Status
}

func TestDueSoonSingleReminder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "a@example.com", 60)
	task := f.addTask(t, user.ID, "Prepare slides", 45*time.Minute)

	result, err := f.dueSoon.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Matched: 1, Notified: 1}, result)

	emails := f.dispatcher.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, user.Email, emails[0].To)
	assert.Equal(t, "Task reminder: Prepare slides", emails[0].Subject)
	assert.Equal(t, notify.TemplateTaskReminder, emails[0].Template)
	assert.Equal(t, user.Name, emails[0].Data["name"])
	assert.Equal(t, "Prepare slides", emails[0].Data["taskTitle"])
	assert.Equal(t, 60, emails[0].Data["interval"])
	assert.Equal(t, *task.DueDate, emails[0].Data["dueDate"])

	assert.Equal(t, domain.TaskStatusPending, f.status(t, task.ID), "reminders never mutate tasks")
}

func TestDueSoonOneReminderPerMatchingInterval(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user := f.addUser(t, "b@example.com", 30, 1440)
	f.addTask(t, user.ID, "soon", 20*time.Minute)
	f.addTask(t, user.ID, "far away", 2000*time.Minute)

	result, err := f.dueSoon.Scan(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Notified)

	emails := f.dispatcher.Emails()
	require.Len(t, emails, 2)
	assert.Equal(t, 30, emails[0].Data["interval"])
	assert.Equal(t, 1440, emails[1].Data["interval"])
	for _, email := range emails {
		assert.Equal(t, "soon", email.Data["taskTitle"])
	}
}

func TestDueSoonWindowBounds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user := f.addUser(t, "c@example.com", 60)
	f.addTask(t, user.ID, "due now", 0)
	f.addTask(t, user.ID, "at horizon", 60*time.Minute)
	f.addTask(t, user.ID, "just past horizon", 60*time.Minute+time.Second)
	f.addTask(t, user.ID, "already late", -time.Minute)

	_, err := f.dueSoon.Scan(context.Background(), f.now)
	require.NoError(t, err)

	emails := f.dispatcher.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "at horizon", emails[0].Data["taskTitle"])
}

func TestDueSoonSkipsDisabledUsers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user := f.addUser(t, "off@example.com", 60, 1440)
	user.NotificationEnabled = false
	f.updateUser(t, user)
	f.addTask(t, user.ID, "quiet", 10*time.Minute)

	noIntervals := f.addUser(t, "empty@example.com")
	noIntervals.NotificationIntervals = []int{}
	f.updateUser(t, noIntervals)
	f.addTask(t, noIntervals.ID, "also quiet", 10*time.Minute)

	result, err := f.dueSoon.Scan(context.Background(), f.now)
	require.NoError(t, err)
	assert.Zero(t, result.Notified)
	assert.Empty(t, f.dispatcher.Emails())
	assert.Empty(t, f.dispatcher.Pushes())
}

func TestDueSoonIgnoresCompletedAndOverdueTasks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "d@example.com", 60)
	done := f.addTask(t, user.ID, "done", 10*time.Minute)
	f.completeTask(t, done)
	flagged := f.addTask(t, user.ID, "flagged", 10*time.Minute)
	_, err := f.tasks.SetStatus(ctx, flagged.ID, domain.TaskStatusOverdue)
	require.NoError(t, err)

	result, err := f.dueSoon.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Zero(t, result.Matched)
	assert.Empty(t, f.dispatcher.Emails())
}

func TestDueSoonRemindsAgainOnNextTick(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user := f.addUser(t, "e@example.com", 60)
	f.addTask(t, user.ID, "repeat", 50*time.Minute)

	_, err := f.dueSoon.Scan(context.Background(), f.now)
	require.NoError(t, err)
	_, err = f.dueSoon.Scan(context.Background(), f.now.Add(5*time.Minute))
	require.NoError(t, err)

	assert.Len(t, f.dispatcher.Emails(), 2)
}

func TestDueSoonPushChannel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user := f.addUser(t, "push@example.com", 60)
	user.NotificationType = domain.NotificationPush
	f.updateUser(t, user)
	f.addTask(t, user.ID, "Call mom", 30*time.Minute)

	_, err := f.dueSoon.Scan(context.Background(), f.now)
	require.NoError(t, err)

	assert.Empty(t, f.dispatcher.Emails())
	pushes := f.dispatcher.Pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, user.ID, pushes[0].UserID)
	assert.Equal(t, "Task reminder: Call mom", pushes[0].Title)
	assert.Contains(t, pushes[0].Body, "Call mom is due")
}

func TestDueSoonContinuesAfterQueryFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	broken := f.addUser(t, "broken@example.com", 60)
	healthy := f.addUser(t, "healthy@example.com", 60)
	f.addTask(t, broken.ID, "unreachable", 10*time.Minute)
	f.addTask(t, healthy.ID, "reachable", 10*time.Minute)
	f.taskStore.failFindFor = &broken.ID

	result, err := f.dueSoon.Scan(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Notified)

	emails := f.dispatcher.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, healthy.Email, emails[0].To)
}

func TestOverdueTransitionAndNotifyOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "y@example.com")
	task := f.addTask(t, user.ID, "Renew passport", -10*time.Minute)

	result, err := f.overdue.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Matched: 1, Notified: 1, Transitioned: 1}, result)
	assert.Equal(t, domain.TaskStatusOverdue, f.status(t, task.ID))

	emails := f.dispatcher.EmailsWithTemplate(notify.TemplateTaskOverdue)
	require.Len(t, emails, 1)
	assert.Equal(t, 0, emails[0].Data["interval"])
	assert.Equal(t, "Task overdue: Renew passport", emails[0].Subject)

	again, err := f.overdue.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{}, again)
	assert.Len(t, f.dispatcher.Emails(), 1)
}

func TestOverdueDueExactlyNowIsNotOverdue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user := f.addUser(t, "edge@example.com")
	task := f.addTask(t, user.ID, "on the dot", 0)

	result, err := f.overdue.Scan(context.Background(), f.now)
	require.NoError(t, err)
	assert.Zero(t, result.Matched)
	assert.Equal(t, domain.TaskStatusPending, f.status(t, task.ID))
}

func TestOverdueIgnoresCompletedTasks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "z@example.com")
	task := f.addTask(t, user.ID, "Filed report", -24*time.Hour)
	f.completeTask(t, task)

	result, err := f.overdue.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Zero(t, result.Matched)

	_, err = f.dueSoon.Scan(ctx, f.now)
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusCompleted, f.status(t, task.ID))
	assert.Empty(t, f.dispatcher.Emails())
}

func TestOverdueTransitionsWithoutNotifying(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	quiet := f.addUser(t, "quiet@example.com")
	quiet.NotificationEnabled = false
	f.updateUser(t, quiet)
	quietTask := f.addTask(t, quiet.ID, "quiet task", -time.Hour)

	orphan := f.addTask(t, uuid.New(), "orphan task", -time.Hour)

	result, err := f.overdue.Scan(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Transitioned)
	assert.Zero(t, result.Notified)

	assert.Equal(t, domain.TaskStatusOverdue, f.status(t, quietTask.ID))
	assert.Equal(t, domain.TaskStatusOverdue, f.status(t, orphan.ID))
	assert.Empty(t, f.dispatcher.Emails())
}

func TestOverdueSkipsTaskWhenStatusUpdateFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "retry@example.com")
	task := f.addTask(t, user.ID, "stubborn", -time.Minute)

	f.taskStore.setStatusErr = errors.New("deadlock detected")
	result, err := f.overdue.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Matched: 1, Failed: 1}, result)
	assert.Equal(t, domain.TaskStatusPending, f.status(t, task.ID))
	assert.Empty(t, f.dispatcher.Emails())

	f.taskStore.setStatusErr = nil
	result, err = f.overdue.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Transitioned)
	assert.Len(t, f.dispatcher.Emails(), 1)
}

func TestOverdueSkipsTaskCompletedDuringScan(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "racer@example.com")
	task := f.addTask(t, user.ID, "finished just in time", -time.Minute)

	f.taskStore.beforeSetStatus = func(id uuid.UUID) {
		current, err := f.tasks.GetByID(ctx, id)
		require.NoError(t, err)
		f.completeTask(t, current)
	}

	result, err := f.overdue.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Matched: 1}, result)
	assert.Empty(t, f.dispatcher.Emails())

	stored, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
}

func TestOverdueTaskReturnsToPendingWhenRescheduled(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "resched@example.com", 60)
	task := f.addTask(t, user.ID, "moved", -time.Minute)

	_, err := f.overdue.Scan(ctx, f.now)
	require.NoError(t, err)

	stored, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	newDue := f.now.Add(30 * time.Minute)
	stored.Reschedule(&newDue, f.now)
	require.NoError(t, f.tasks.Update(ctx, stored))
	f.dispatcher.Reset()

	_, err = f.dueSoon.Scan(ctx, f.now)
	require.NoError(t, err)
	assert.Len(t, f.dispatcher.EmailsWithTemplate(notify.TemplateTaskReminder), 1)
}

func TestScannersStopOnCancelledContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user := f.addUser(t, "cancel@example.com", 60)
	f.addTask(t, user.ID, "late", -time.Minute)
	f.addTask(t, user.ID, "soon", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.dueSoon.Scan(ctx, f.now)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = f.overdue.Scan(ctx, f.now)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.dispatcher.Emails())
}
