package ports

import (
	"context"
	"time"
)

// Task lifecycle states.
const (
	TaskStatusQueued     = "queued"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// TaskParams are the pipeline overrides captured when the task was submitted.
// Zero values fall back to the domain's configuration at execution time.
type TaskParams struct {
	Hops        int      `json:"hops,omitempty"`
	MaxExpanded int      `json:"max_expanded,omitempty"`
	MaxQueries  int      `json:"max_queries,omitempty"`
	EdgeTypes   []string `json:"edge_types,omitempty"`
	Background  bool     `json:"background,omitempty"`
}

// TaskRecord is one asynchronous question submission. Params and
// VectorStoreID travel with the record so the worker replays the question
// exactly as it was submitted.
type TaskRecord struct {
	ID            string     `json:"task_id"`
	Question      string     `json:"question"`
	Domain        string     `json:"domain"`
	VectorStoreID string     `json:"vectorstore_id,omitempty"`
	Params        TaskParams `json:"params"`
	Status        string     `json:"status"`
	Result        []byte     `json:"-"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status string
	Limit  int
	Offset int
}

// TaskStore persists asynchronous question tasks across restarts.
type TaskStore interface {
	Create(ctx context.Context, task *TaskRecord) error

	// UpdateStatus moves a task through its lifecycle. Result and taskErr
	// may be empty for intermediate transitions; CompletedAt is stamped on
	// terminal states.
	UpdateStatus(ctx context.Context, id, status string, result []byte, taskErr string) error

	Get(ctx context.Context, id string) (*TaskRecord, error)

	// List returns a page of tasks, newest first, and the total count for
	// the filter.
	List(ctx context.Context, filter TaskFilter) ([]*TaskRecord, int, error)

	Delete(ctx context.Context, id string) error

	// CleanupOlderThan removes terminal tasks older than the given age and
	// reports how many were deleted.
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)

	// Stats returns task counts by status.
	Stats(ctx context.Context) (map[string]int, error)
}
