package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/notify"
)

// Scanner is one kind of periodic scan.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, now time.Time) (ScanResult, error)
}

// ScanResult counts what a single scan did.
type ScanResult struct {
	// Matched is the number of tasks selected by the scan's filters.
	Matched int `json:"matched"`
	// Notified is the number of notifications handed to the dispatcher.
	Notified int `json:"notified"`
	// Transitioned is the number of tasks whose status was changed.
	Transitioned int `json:"transitioned"`
	// Failed is the number of queries or items skipped because of an error.
	Failed int `json:"failed"`
}

// notification kinds
type notificationKind int

const (
	reminderNotification notificationKind = iota
	overdueNotification
)

// notifyOwner sends the task notification over the channel the user chose.
// interval is the matching reminder window in minutes, or 0 for overdue.
func notifyOwner(
	ctx context.Context,
	dispatcher notify.Dispatcher,
	user *domain.User,
	task *domain.Task,
	interval int,
	kind notificationKind,
) {
	var dueDate any
	if task.DueDate != nil {
		dueDate = *task.DueDate
	}

	subject := "Task reminder: " + task.Title
	template := notify.TemplateTaskReminder
	if kind == overdueNotification {
		subject = "Task overdue: " + task.Title
		template = notify.TemplateTaskOverdue
	}

	if user.NotificationType == domain.NotificationPush {
		dispatcher.SendPush(ctx, user.ID, subject, pushBody(task, kind))
		return
	}

	dispatcher.SendEmail(ctx, user.Email, subject, template, map[string]any{
		"name":      user.Name,
		"taskTitle": task.Title,
		"interval":  interval,
		"dueDate":   dueDate,
	})
}

func pushBody(task *domain.Task, kind notificationKind) string {
	if task.DueDate == nil {
		return task.Title
	}
	due := task.DueDate.UTC().Format(time.RFC3339)
	if kind == overdueNotification {
		return fmt.Sprintf("%s was due %s", task.Title, due)
	}
	return fmt.Sprintf("%s is due %s", task.Title, due)
}
