package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/notify"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// DueSoonScanner reminds users of incomplete tasks whose due date falls in
// one of their notification windows (now, now+interval].
//
// No record of sent reminders is kept: a task that stays inside a window
// across several ticks is reminded on each of them.
type DueSoonScanner struct {
	tasks      store.TaskStore
	users      store.UserStore
	dispatcher notify.Dispatcher
	logger     *slog.Logger
}

var _ Scanner = (*DueSoonScanner)(nil)

// NewDueSoonScanner creates a DueSoonScanner.
func NewDueSoonScanner(
	tasks store.TaskStore,
	users store.UserStore,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
) *DueSoonScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DueSoonScanner{
		tasks:      tasks,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("scanner", "due_soon")),
	}
}

// Name implements Scanner.
func (s *DueSoonScanner) Name() string { return "due_soon" }

// Scan implements Scanner.
func (s *DueSoonScanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	var result ScanResult

	enabled := true
	users, err := s.users.List(ctx, store.UserFilter{NotificationEnabled: &enabled})
	if err != nil {
		return result, fmt.Errorf("failed to list notifiable users: %w", err)
	}

	incomplete := false
	overdue := domain.TaskStatusOverdue

	for _, user := range users {
		if !user.WantsReminders() {
			continue
		}

		for _, interval := range user.NotificationIntervals {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if interval <= 0 || interval > domain.MaxNotificationInterval {
				continue
			}

			horizon := now.Add(time.Duration(interval) * time.Minute)
			tasks, err := s.tasks.Find(ctx, store.TaskFilter{
				OwnerID:       &user.ID,
				DueAfter:      &now,
				DueAtOrBefore: &horizon,
				Completed:     &incomplete,
				StatusNot:     &overdue,
			})
			if err != nil {
				result.Failed++
				log.Error("failed to find due-soon tasks",
					slog.String("error", err.Error()),
					slog.String("user_id", user.ID.String()),
					slog.Int("interval_minutes", interval))
				continue
			}

			for _, task := range tasks {
				result.Matched++
				log.Debug("task due soon",
					slog.String("task_id", task.ID.String()),
					slog.String("user_id", user.ID.String()),
					slog.Int("interval_minutes", interval))
				notifyOwner(ctx, s.dispatcher, user, task, interval, reminderNotification)
				result.Notified++
			}
		}
	}

	return result, nil
}
