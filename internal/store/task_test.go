package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTaskFilterMatches(t *testing.T) {
	t.Parallel()

	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := uuid.New()
	due := now.Add(30 * time.Minute)

	task := &domain.Task{
		ID:       uuid.New(),
		UserID:   owner,
		Title:    "t",
		DueDate:  &due,
		Priority: domain.PriorityHigh,
		Tags:     []string{"home", "errand"},
		Status:   domain.TaskStatusPending,
	}

	ptr := func(tm time.Time) *time.Time { return &tm }
	otherOwner := uuid.New()
	falseVal := false
	trueVal := true
	overdue := domain.TaskStatusOverdue
	pending := domain.TaskStatusPending
	low := domain.PriorityLow

	tests := []struct {
		name   string
		filter TaskFilter
		want   bool
	}{
		{"empty filter", TaskFilter{}, true},
		{"owner match", TaskFilter{OwnerID: &owner}, true},
		{"owner mismatch", TaskFilter{OwnerID: &otherOwner}, false},
		{"window includes due", TaskFilter{DueAfter: ptr(now), DueAtOrBefore: ptr(now.Add(time.Hour))}, true},
		{"window upper bound inclusive", TaskFilter{DueAfter: ptr(now), DueAtOrBefore: ptr(due)}, true},
		{"window lower bound exclusive", TaskFilter{DueAfter: ptr(due)}, false},
		{"window too short", TaskFilter{DueAfter: ptr(now), DueAtOrBefore: ptr(now.Add(20 * time.Minute))}, false},
		{"due before exclusive", TaskFilter{DueBefore: ptr(due)}, false},
		{"due before later", TaskFilter{DueBefore: ptr(due.Add(time.Second))}, true},
		{"completed false", TaskFilter{Completed: &falseVal}, true},
		{"completed true", TaskFilter{Completed: &trueVal}, false},
		{"status not overdue", TaskFilter{StatusNot: &overdue}, true},
		{"status not pending", TaskFilter{StatusNot: &pending}, false},
		{"status pending", TaskFilter{Status: &pending}, true},
		{"priority mismatch", TaskFilter{Priority: &low}, false},
		{"any tag", TaskFilter{Tags: []string{"work", "errand"}}, true},
		{"no tag", TaskFilter{Tags: []string{"work"}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(task))
		})
	}
}

func TestTaskFilterDueBoundExcludesUndated(t *testing.T) {
	t.Parallel()

	now := time.Now()
	task := &domain.Task{UserID: uuid.New(), Status: domain.TaskStatusPending}

	assert.True(t, TaskFilter{}.Matches(task))
	assert.False(t, TaskFilter{DueBefore: &now}.Matches(task))
	assert.False(t, TaskFilter{DueAfter: &now}.Matches(task))
}
