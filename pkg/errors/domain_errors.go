package errors

import (
	"fmt"
	"strings"
)

// Domain-specific error constructors shared across layers.

// NewUnknownDomainError reports a lookup against an unregistered domain,
// listing what is available.
func NewUnknownDomainError(domainID string, available []string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("unknown domain '%s' (available: %s)", domainID, strings.Join(available, ", ")),
		Code:       "UNKNOWN_DOMAIN",
		HTTPStatus: 404,
		StackTrace: captureStackTrace(),
	}
}

// NewGraphLoadError reports a failed graph artifact fetch or parse.
func NewGraphLoadError(domainID string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    fmt.Sprintf("failed to load knowledge graph for domain '%s'", domainID),
		Code:       "GRAPH_LOAD_FAILED",
		Cause:      err,
		HTTPStatus: 500,
		StackTrace: captureStackTrace(),
	}
}

// NewTaskNotFoundError reports a lookup for a task that does not exist.
func NewTaskNotFoundError(taskID string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("task '%s' not found", taskID),
		Code:       "TASK_NOT_FOUND",
		HTTPStatus: 404,
		StackTrace: captureStackTrace(),
	}
}

// NewQueueFullError reports that the background worker queue is saturated.
func NewQueueFullError() *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Message:    "task queue is full, try again later",
		Code:       "QUEUE_FULL",
		HTTPStatus: 503,
		StackTrace: captureStackTrace(),
	}
}
