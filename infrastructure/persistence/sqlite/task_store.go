package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"ekg-backend/application/ports"
	pkgerrors "ekg-backend/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	domain TEXT NOT NULL,
	vector_store_id TEXT NOT NULL DEFAULT '',
	params TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	result TEXT,
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
`

// TaskStore persists async question tasks in SQLite.
type TaskStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.TaskStore = (*TaskStore)(nil)

// NewTaskStore opens (or creates) the task database at path. ":memory:" is
// accepted for tests.
func NewTaskStore(path string, logger *zap.Logger) (*TaskStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("open", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under the worker pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pkgerrors.NewDatabaseError("migrate", err)
	}
	return &TaskStore{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *TaskStore) Close() error {
	return s.db.Close()
}

// Create inserts a new task, stamping timestamps and defaulting the status to
// queued.
func (s *TaskStore) Create(ctx context.Context, task *ports.TaskRecord) error {
	if task.ID == "" {
		return pkgerrors.NewValidationError("task id cannot be empty")
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = ports.TaskStatusQueued
	}

	params, err := json.Marshal(task.Params)
	if err != nil {
		return pkgerrors.NewDatabaseError("encode task params", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, question, domain, vector_store_id, params, status, result, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Question, task.Domain, task.VectorStoreID, string(params),
		task.Status, string(task.Result), task.Error, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("create task", err)
	}
	return nil
}

// UpdateStatus transitions a task, storing the result payload and stamping
// completed_at on terminal states.
func (s *TaskStore) UpdateStatus(ctx context.Context, id, status string, result []byte, taskErr string) error {
	now := time.Now().UTC()
	var completedAt interface{}
	if status == ports.TaskStatusCompleted || status == ports.TaskStatusFailed {
		completedAt = now
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, result = ?, error = ?, updated_at = ?,
		 completed_at = COALESCE(?, completed_at) WHERE id = ?`,
		status, string(result), taskErr, now, completedAt, id,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("update task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.NewDatabaseError("update task", err)
	}
	if affected == 0 {
		return pkgerrors.NewTaskNotFoundError(id)
	}
	return nil
}

// Get returns one task by id.
func (s *TaskStore) Get(ctx context.Context, id string) (*ports.TaskRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, question, domain, vector_store_id, params, status, result, error, created_at, updated_at, completed_at
		 FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewTaskNotFoundError(id)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get task", err)
	}
	return task, nil
}

// List returns a page of tasks, newest first, with the total count for the
// filter.
func (s *TaskStore) List(ctx context.Context, filter ports.TaskFilter) ([]*ports.TaskRecord, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Status != "" {
		where = " WHERE status = ?"
		args = append(args, filter.Status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks"+where, args...).Scan(&total); err != nil {
		return nil, 0, pkgerrors.NewDatabaseError("count tasks", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, question, domain, vector_store_id, params, status, result, error, created_at, updated_at, completed_at
		 FROM tasks` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, pkgerrors.NewDatabaseError("list tasks", err)
	}
	defer rows.Close()

	tasks := make([]*ports.TaskRecord, 0, limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, pkgerrors.NewDatabaseError("list tasks", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, pkgerrors.NewDatabaseError("list tasks", err)
	}
	return tasks, total, nil
}

// Delete removes one task.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return pkgerrors.NewDatabaseError("delete task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.NewDatabaseError("delete task", err)
	}
	if affected == 0 {
		return pkgerrors.NewTaskNotFoundError(id)
	}
	return nil
}

// CleanupOlderThan removes terminal tasks older than age.
func (s *TaskStore) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE status IN (?, ?) AND created_at < ?`,
		ports.TaskStatusCompleted, ports.TaskStatusFailed, cutoff,
	)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("cleanup tasks", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("cleanup tasks", err)
	}
	if affected > 0 {
		s.logger.Info("cleaned up old tasks", zap.Int64("removed", affected))
	}
	return int(affected), nil
}

// Stats returns task counts grouped by status.
func (s *TaskStore) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("task stats", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, pkgerrors.NewDatabaseError("task stats", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("task stats", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*ports.TaskRecord, error) {
	var task ports.TaskRecord
	var params string
	var result sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&task.ID, &task.Question, &task.Domain, &task.VectorStoreID,
		&params, &task.Status, &result, &task.Error,
		&task.CreatedAt, &task.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if params != "" {
		if err := json.Unmarshal([]byte(params), &task.Params); err != nil {
			return nil, err
		}
	}
	if result.Valid && result.String != "" {
		task.Result = []byte(result.String)
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	return &task, nil
}

// String renders a short description for logs.
func (s *TaskStore) String() string {
	return fmt.Sprintf("sqlite task store (%p)", s.db)
}
