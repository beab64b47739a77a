package tasks

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"ekg-backend/application/ports"
	"ekg-backend/application/services"
	pkgerrors "ekg-backend/pkg/errors"
	"ekg-backend/pkg/observability"
)

// Executor runs one queued task end to end and returns the result payload.
type Executor func(ctx context.Context, task *ports.TaskRecord) (*services.StructuredResult, error)

// Runner is the bounded worker pool behind async question submissions. Tasks
// are durable in the store; the in-memory queue only carries ids.
type Runner struct {
	store   ports.TaskStore
	execute Executor
	metrics *observability.Metrics
	logger  *zap.Logger

	workers int
	jobs    chan string
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewRunner creates a runner with the given worker count.
func NewRunner(store ports.TaskStore, execute Executor, workers int, metrics *observability.Metrics, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		store:   store,
		execute: execute,
		metrics: metrics,
		logger:  logger,
		workers: workers,
		jobs:    make(chan string, workers*16),
	}
}

// Start launches the workers. They run until ctx is cancelled and the queue
// drains.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.logger.Info("task runner started", zap.Int("workers", r.workers))
}

// Enqueue hands a persisted task to the pool without blocking.
func (r *Runner) Enqueue(taskID string) error {
	select {
	case r.jobs <- taskID:
		return nil
	default:
		return pkgerrors.NewQueueFullError()
	}
}

// Stop closes the queue and waits for in-flight tasks.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	close(r.jobs)
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case taskID, ok := <-r.jobs:
			if !ok {
				return
			}
			r.process(ctx, taskID)
		}
	}
}

func (r *Runner) process(ctx context.Context, taskID string) {
	task, err := r.store.Get(ctx, taskID)
	if err != nil {
		r.logger.Error("queued task vanished", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	if err := r.store.UpdateStatus(ctx, taskID, ports.TaskStatusProcessing, nil, ""); err != nil {
		r.logger.Error("failed to mark task processing", zap.String("task_id", taskID), zap.Error(err))
	}

	result, err := r.execute(ctx, task)
	if err != nil {
		r.fail(ctx, taskID, err)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		r.fail(ctx, taskID, err)
		return
	}

	if err := r.store.UpdateStatus(ctx, taskID, ports.TaskStatusCompleted, payload, ""); err != nil {
		r.logger.Error("failed to mark task completed", zap.String("task_id", taskID), zap.Error(err))
		return
	}
	r.metrics.TasksTotal.WithLabelValues(ports.TaskStatusCompleted).Inc()
	r.logger.Info("task completed", zap.String("task_id", taskID))
}

func (r *Runner) fail(ctx context.Context, taskID string, cause error) {
	if err := r.store.UpdateStatus(ctx, taskID, ports.TaskStatusFailed, nil, cause.Error()); err != nil {
		r.logger.Error("failed to mark task failed", zap.String("task_id", taskID), zap.Error(err))
	}
	r.metrics.TasksTotal.WithLabelValues(ports.TaskStatusFailed).Inc()
	r.logger.Warn("task failed", zap.String("task_id", taskID), zap.Error(cause))
}
