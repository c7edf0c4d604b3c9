//go:build integration

package mongodb_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/mongodb"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStores connects to TASKPULSE_TEST_MONGO_URL and returns stores on a
// throwaway database that is dropped after the test.
func newStores(t *testing.T) (*mongodb.TaskStore, *mongodb.UserStore) {
	t.Helper()

	uri := os.Getenv("TASKPULSE_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TASKPULSE_TEST_MONGO_URL not set - skipping mongodb integration test")
	}

	ctx := context.Background()
	client, err := mongodb.Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("taskpulse_test_" + uuid.NewString()[:8])
	require.NoError(t, mongodb.EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mongodb.NewTaskStore(db, log), mongodb.NewUserStore(db, log)
}

func TestMongoStores(t *testing.T) {
	tasks, users := newStores(t)
	ctx := context.Background()

	user, err := domain.NewUser("Mongo User", "mongo@example.com", "secret1")
	require.NoError(t, err)
	user.HashedPassword = "hash"
	require.NoError(t, users.Create(ctx, user))

	dup, err := domain.NewUser("Other", "mongo@example.com", "secret1")
	require.NoError(t, err)
	dup.HashedPassword = "hash"
	assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)

	orphan, err := domain.NewTask(uuid.New(), "orphan", "", nil, "", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, tasks.Create(ctx, orphan), store.ErrInvalidEntity)

	now := time.Now().UTC().Truncate(time.Millisecond)
	soon := now.Add(20 * time.Minute)
	later := now.Add(3 * time.Hour)
	for _, spec := range []struct {
		title string
		due   *time.Time
	}{{"undated", nil}, {"later", &later}, {"soon", &soon}} {
		task, err := domain.NewTask(user.ID, spec.title, "", spec.due, "", []string{"home"})
		require.NoError(t, err)
		require.NoError(t, tasks.Create(ctx, task))
	}

	all, err := tasks.Find(ctx, store.TaskFilter{OwnerID: &user.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "soon", all[0].Title)
	assert.Equal(t, "later", all[1].Title)
	assert.Equal(t, "undated", all[2].Title)

	horizon := now.Add(time.Hour)
	window, err := tasks.Find(ctx, store.TaskFilter{DueAfter: &now, DueAtOrBefore: &horizon})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "soon", window[0].Title)

	overdue, err := tasks.SetStatus(ctx, window[0].ID, domain.TaskStatusOverdue)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOverdue, overdue.Status)

	counts, err := tasks.CountByStatus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.TaskStatusOverdue])
	assert.Equal(t, 2, counts[domain.TaskStatusPending])

	require.NoError(t, users.Delete(ctx, user.ID))
	remaining, err := tasks.Find(ctx, store.TaskFilter{OwnerID: &user.ID})
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.ErrorIs(t, users.Delete(ctx, user.ID), store.ErrUserNotFound)
}
