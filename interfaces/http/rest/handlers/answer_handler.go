package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekg-backend/application/ports"
	"ekg-backend/application/services"
	"ekg-backend/application/tasks"
	"ekg-backend/pkg/common"
	pkgerrors "ekg-backend/pkg/errors"
	"ekg-backend/pkg/utils"
)

// AskRequest is the question submission body.
type AskRequest struct {
	Question      string    `json:"question" validate:"required,min=3"`
	Domain        string    `json:"domain"`
	VectorStoreID string    `json:"vectorstore_id"`
	Params        AskParams `json:"params"`

	// AsyncMode queues the question and returns a task id instead of
	// waiting for the answer.
	AsyncMode bool `json:"async_mode"`
}

// AskParams are per-request pipeline overrides. Zero values fall back to the
// domain's configuration.
type AskParams struct {
	Hops        int      `json:"hops" validate:"omitempty,min=1,max=3"`
	MaxExpanded int      `json:"max_expanded" validate:"omitempty,min=1,max=500"`
	MaxQueries  int      `json:"max_queries" validate:"omitempty,min=1,max=50"`
	EdgeTypes   []string `json:"edge_types" validate:"omitempty,max=50,dive,min=1"`
	Background  bool     `json:"background"`
}

// AskResponse is the synchronous answer envelope.
type AskResponse struct {
	ResponseID string                     `json:"response_id"`
	Markdown   string                     `json:"markdown"`
	JSONData   *services.StructuredResult `json:"json_data"`
	Sources    interface{}                `json:"sources"`
	Meta       services.ResultMeta        `json:"meta"`
}

// TaskAcceptedResponse is the async submission envelope.
type TaskAcceptedResponse struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}

// AnswerHandler serves question submission.
type AnswerHandler struct {
	answers  *services.AnswerService
	store    ports.TaskStore
	runner   *tasks.Runner
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
	maxBody  int64
	askLimit time.Duration
}

// NewAnswerHandler creates the handler.
func NewAnswerHandler(
	answers *services.AnswerService,
	store ports.TaskStore,
	runner *tasks.Runner,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *AnswerHandler {
	return &AnswerHandler{
		answers:  answers,
		store:    store,
		runner:   runner,
		errors:   errorHandler,
		logger:   logger,
		maxBody:  1 << 20,
		askLimit: 5 * time.Minute,
	}
}

// Ask handles POST /answers.
func (h *AnswerHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := common.ParseJSONBody(r, &req, h.maxBody); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	if req.AsyncMode {
		h.askAsync(w, r, &req)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.askLimit)
	defer cancel()

	result, err := h.answers.Answer(ctx, services.AskInput{
		Question:      req.Question,
		DomainID:      req.Domain,
		VectorStoreID: req.VectorStoreID,
		Options: services.RunOptions{
			Hops:        req.Params.Hops,
			MaxExpanded: req.Params.MaxExpanded,
			MaxQueries:  req.Params.MaxQueries,
			EdgeTypes:   req.Params.EdgeTypes,
			Background:  req.Params.Background,
		},
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, AskResponse{
		ResponseID: uuid.NewString(),
		Markdown:   result.Markdown,
		JSONData:   result,
		Sources:    result.Sources,
		Meta:       result.Meta,
	})
}

// askAsync queues the question for the worker pool.
func (h *AnswerHandler) askAsync(w http.ResponseWriter, r *http.Request, req *AskRequest) {
	task := &ports.TaskRecord{
		ID:            uuid.NewString(),
		Question:      req.Question,
		Domain:        req.Domain,
		VectorStoreID: req.VectorStoreID,
		Params: ports.TaskParams{
			Hops:        req.Params.Hops,
			MaxExpanded: req.Params.MaxExpanded,
			MaxQueries:  req.Params.MaxQueries,
			EdgeTypes:   req.Params.EdgeTypes,
			Background:  req.Params.Background,
		},
		Status: ports.TaskStatusQueued,
	}
	if err := h.store.Create(r.Context(), task); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.runner.Enqueue(task.ID); err != nil {
		// The record stays queued; a later retry or cleanup handles it.
		h.logger.Warn("task queue rejected submission", zap.String("task_id", task.ID), zap.Error(err))
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("question queued",
		zap.String("task_id", task.ID),
		zap.String("domain", req.Domain),
	)
	common.RespondJSON(w, http.StatusAccepted, TaskAcceptedResponse{
		TaskID:    task.ID,
		Status:    task.Status,
		StatusURL: "/api/v1/tasks/" + task.ID,
	})
}
