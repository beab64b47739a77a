package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ekg-backend/application/ports"
	"ekg-backend/application/services"
	"ekg-backend/pkg/common"
	pkgerrors "ekg-backend/pkg/errors"
)

// TaskView is the list/detail representation of a task.
type TaskView struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Domain      string     `json:"domain"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskAnswerView is the task result once the pipeline has finished.
type TaskAnswerView struct {
	TaskID string                     `json:"task_id"`
	Status string                     `json:"status"`
	Error  string                     `json:"error,omitempty"`
	Result *services.StructuredResult `json:"result,omitempty"`
}

// TaskHandler serves the async task API.
type TaskHandler struct {
	store  ports.TaskStore
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewTaskHandler creates the handler.
func NewTaskHandler(store ports.TaskStore, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{store: store, errors: errorHandler, logger: logger}
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	params := common.ExtractPaginationParams(r)
	filter := ports.TaskFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  params.PageSize,
		Offset: params.CalculateOffset(),
	}

	records, total, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	views := make([]TaskView, 0, len(records))
	for _, rec := range records {
		views = append(views, taskView(rec))
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(views, params.Page, params.PageSize, total))
}

// Get handles GET /tasks/{taskID}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	common.RespondJSON(w, http.StatusOK, taskView(rec))
}

// Answer handles GET /tasks/{taskID}/answer. The stored result is returned
// only once the task has completed.
func (h *TaskHandler) Answer(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	view := TaskAnswerView{
		TaskID: rec.ID,
		Status: rec.Status,
		Error:  rec.Error,
	}
	if rec.Status == ports.TaskStatusCompleted && len(rec.Result) > 0 {
		var result services.StructuredResult
		if err := json.Unmarshal(rec.Result, &result); err != nil {
			h.logger.Error("stored task result is unreadable",
				zap.String("task_id", rec.ID), zap.Error(err))
			h.errors.Handle(w, r, pkgerrors.NewInternalError("stored result is unreadable"))
			return
		}
		view.Result = &result
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /tasks/{taskID}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if err := h.store.Delete(r.Context(), taskID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"task_id": taskID, "status": "deleted"})
}

// Stats handles GET /tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}

func (h *TaskHandler) lookup(w http.ResponseWriter, r *http.Request) (*ports.TaskRecord, bool) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("task id is required"))
		return nil, false
	}
	rec, err := h.store.Get(r.Context(), taskID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return nil, false
	}
	return rec, true
}

func taskView(rec *ports.TaskRecord) TaskView {
	return TaskView{
		ID:          rec.ID,
		Question:    rec.Question,
		Domain:      rec.Domain,
		Status:      rec.Status,
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		CompletedAt: rec.CompletedAt,
	}
}
