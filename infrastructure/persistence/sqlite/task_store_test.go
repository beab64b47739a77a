package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ekg-backend/application/ports"
	pkgerrors "ekg-backend/pkg/errors"
)

func newTestStore(t *testing.T) *TaskStore {
	t.Helper()
	store, err := NewTaskStore(filepath.Join(t.TempDir(), "tasks.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTaskStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := &ports.TaskRecord{ID: "t1", Question: "why?", Domain: "acme"}
	require.NoError(t, store.Create(ctx, task))

	// Create stamps timestamps and the default status.
	assert.Equal(t, ports.TaskStatusQueued, task.Status)
	assert.False(t, task.CreatedAt.IsZero())

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "why?", got.Question)
	assert.Equal(t, "acme", got.Domain)
	assert.Equal(t, ports.TaskStatusQueued, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Empty(t, got.Result)
}

func TestTaskStorePersistsSubmissionParams(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := &ports.TaskRecord{
		ID:            "t1",
		Question:      "why?",
		Domain:        "acme",
		VectorStoreID: "vs-override",
		Params: ports.TaskParams{
			Hops:        2,
			MaxExpanded: 120,
			MaxQueries:  6,
			EdgeTypes:   []string{"USES", "OWNS"},
			Background:  true,
		},
	}
	require.NoError(t, store.Create(ctx, task))

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "vs-override", got.VectorStoreID)
	assert.Equal(t, task.Params, got.Params)
}

func TestTaskStoreCreateRejectsEmptyID(t *testing.T) {
	store := newTestStore(t)

	err := store.Create(context.Background(), &ports.TaskRecord{Question: "q"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestTaskStoreUpdateStatusStampsCompletion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "t1", Question: "q", Domain: "acme"}))

	require.NoError(t, store.UpdateStatus(ctx, "t1", ports.TaskStatusProcessing, nil, ""))
	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, ports.TaskStatusProcessing, got.Status)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, store.UpdateStatus(ctx, "t1", ports.TaskStatusCompleted, []byte(`{"answer":"a"}`), ""))
	got, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, ports.TaskStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.JSONEq(t, `{"answer":"a"}`, string(got.Result))
}

func TestTaskStoreUpdateStatusRecordsFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "t1", Question: "q", Domain: "acme"}))
	require.NoError(t, store.UpdateStatus(ctx, "t1", ports.TaskStatusFailed, nil, "model unavailable"))

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, ports.TaskStatusFailed, got.Status)
	assert.Equal(t, "model unavailable", got.Error)
	assert.NotNil(t, got.CompletedAt)
}

func TestTaskStoreNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	err = store.UpdateStatus(ctx, "missing", ports.TaskStatusCompleted, nil, "")
	assert.True(t, pkgerrors.IsNotFound(err))

	err = store.Delete(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestTaskStoreListFiltersAndPaginates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		task := &ports.TaskRecord{
			ID:        fmt.Sprintf("t%d", i),
			Question:  "q",
			Domain:    "acme",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Create(ctx, task))
	}
	require.NoError(t, store.UpdateStatus(ctx, "t0", ports.TaskStatusCompleted, nil, ""))
	require.NoError(t, store.UpdateStatus(ctx, "t1", ports.TaskStatusCompleted, nil, ""))

	tasks, total, err := store.List(ctx, ports.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, tasks, 5)
	// Newest first.
	assert.Equal(t, "t4", tasks[0].ID)
	assert.Equal(t, "t0", tasks[4].ID)

	tasks, total, err = store.List(ctx, ports.TaskFilter{Status: ports.TaskStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, tasks, 2)

	tasks, total, err = store.List(ctx, ports.TaskFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID)
	assert.Equal(t, "t1", tasks[1].ID)
}

func TestTaskStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "t1", Question: "q", Domain: "acme"}))
	require.NoError(t, store.Delete(ctx, "t1"))

	_, err := store.Get(ctx, "t1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestTaskStoreCleanupOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "old-done", Question: "q", Domain: "acme", CreatedAt: old}))
	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "old-queued", Question: "q", Domain: "acme", CreatedAt: old}))
	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "fresh-done", Question: "q", Domain: "acme"}))
	require.NoError(t, store.UpdateStatus(ctx, "old-done", ports.TaskStatusCompleted, nil, ""))
	require.NoError(t, store.UpdateStatus(ctx, "fresh-done", ports.TaskStatusCompleted, nil, ""))

	removed, err := store.CleanupOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// Old but still queued tasks survive, as do fresh terminal ones.
	_, err = store.Get(ctx, "old-queued")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "fresh-done")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "old-done")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestTaskStoreStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "t1", Question: "q", Domain: "acme"}))
	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "t2", Question: "q", Domain: "acme"}))
	require.NoError(t, store.Create(ctx, &ports.TaskRecord{ID: "t3", Question: "q", Domain: "acme"}))
	require.NoError(t, store.UpdateStatus(ctx, "t3", ports.TaskStatusFailed, nil, "boom"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats[ports.TaskStatusQueued])
	assert.Equal(t, 1, stats[ports.TaskStatusFailed])
}
