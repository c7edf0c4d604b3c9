package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/notify"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// OverdueScanner moves incomplete tasks whose due date has passed to the
// overdue status and notifies owners who have notifications enabled.
// Selection spans all users; only the notification depends on preferences.
type OverdueScanner struct {
	tasks      store.TaskStore
	users      store.UserStore
	dispatcher notify.Dispatcher
	logger     *slog.Logger
}

var _ Scanner = (*OverdueScanner)(nil)

// NewOverdueScanner creates an OverdueScanner.
func NewOverdueScanner(
	tasks store.TaskStore,
	users store.UserStore,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
) *OverdueScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueScanner{
		tasks:      tasks,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("scanner", "overdue")),
	}
}

// Name implements Scanner.
func (s *OverdueScanner) Name() string { return "overdue" }

// Scan implements Scanner.
func (s *OverdueScanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	var result ScanResult

	incomplete := false
	overdue := domain.TaskStatusOverdue
	tasks, err := s.tasks.Find(ctx, store.TaskFilter{
		DueBefore: &now,
		Completed: &incomplete,
		StatusNot: &overdue,
	})
	if err != nil {
		return result, fmt.Errorf("failed to find overdue tasks: %w", err)
	}

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Matched++

		updated, err := s.tasks.SetStatus(ctx, task.ID, domain.TaskStatusOverdue)
		if errors.Is(err, domain.ErrOverdueCompleted) {
			log.Debug("task completed before it could be marked overdue",
				slog.String("task_id", task.ID.String()))
			continue
		}
		if err != nil {
			// The task keeps its status and is picked up again next tick.
			result.Failed++
			log.Error("failed to mark task overdue",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			continue
		}
		result.Transitioned++

		user, err := s.users.GetByID(ctx, updated.UserID)
		if err != nil {
			level := slog.LevelWarn
			if store.IsNotFoundError(err) {
				level = slog.LevelDebug
			}
			log.Log(ctx, level, "skipping overdue notification, owner lookup failed",
				slog.String("error", err.Error()),
				slog.String("task_id", updated.ID.String()),
				slog.String("user_id", updated.UserID.String()))
			continue
		}
		if !user.NotificationEnabled {
			continue
		}

		notifyOwner(ctx, s.dispatcher, user, updated, 0, overdueNotification)
		result.Notified++
	}

	return result, nil
}
