package mongodb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestTaskQuery(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	horizon := now.Add(time.Hour)
	incomplete := false
	overdue := domain.TaskStatusOverdue

	query, opts := taskQuery(store.TaskFilter{
		OwnerID:       &owner,
		DueAfter:      &now,
		DueAtOrBefore: &horizon,
		Completed:     &incomplete,
		StatusNot:     &overdue,
		Tags:          []string{"work"},
		Limit:         5,
		Offset:        10,
	})

	assert.Equal(t, bson.M{
		"user_id": owner.String(),
		"due_date": bson.M{
			"$type": "date",
			"$gt":   now.UTC(),
			"$lte":  horizon.UTC(),
		},
		"completed": false,
		"status":    bson.M{"$ne": "overdue"},
		"tags":      bson.M{"$in": []string{"work"}},
	}, query)

	require.NotNil(t, opts.Limit)
	require.NotNil(t, opts.Skip)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, int64(10), *opts.Skip)
	assert.Equal(t, taskSort, opts.Sort)
}

func TestTaskQueryEmptyFilter(t *testing.T) {
	t.Parallel()

	query, opts := taskQuery(store.TaskFilter{})
	assert.Empty(t, query)
	assert.Nil(t, opts.Limit)
	assert.Nil(t, opts.Skip)
}

func TestUserQuery(t *testing.T) {
	t.Parallel()

	enabled := true
	query, _ := userQuery(store.UserFilter{NotificationEnabled: &enabled})
	assert.Equal(t, bson.M{"notification_enabled": true}, query)
}

func TestTaskDocumentKeepsUndatedTasksLast(t *testing.T) {
	t.Parallel()

	task, err := domain.NewTask(uuid.New(), "undated", "", nil, "", nil)
	require.NoError(t, err)

	doc := newTaskDocument(task)
	assert.True(t, doc.NoDueDate)
	assert.Nil(t, doc.DueDate)
	assert.Equal(t, []string{}, doc.Tags)

	back, err := doc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, task.ID, back.ID)
	assert.Nil(t, back.DueDate)
}

func TestDocumentRejectsMalformedIDs(t *testing.T) {
	t.Parallel()

	_, err := taskDocument{ID: "not-a-uuid"}.toDomain()
	assert.Error(t, err)

	_, err = userDocument{ID: "not-a-uuid"}.toDomain()
	assert.Error(t, err)
}
