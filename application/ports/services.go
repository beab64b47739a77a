package ports

import (
	"context"

	"ekg-backend/domain/core/aggregates"
)

// Annotation is a low-level citation marker attached to generated text by the
// retrieval tool. Used as a fallback when the structured payload carries no
// citations of its own.
type Annotation struct {
	Filename string
	Title    string
	FileID   string
}

// InvokeResult is the outcome of one grounded generation call.
type InvokeResult struct {
	// ID is the provider's handle for this response, used to poll
	// backgrounded calls.
	ID string
	// Status is the provider's lifecycle state, "completed" when the text
	// is final.
	Status string
	// OutputText is the concatenated text payload.
	OutputText string
	// Annotations are retrieval markers walked out of the raw response.
	Annotations []Annotation
}

// GenerationService is the boundary to the external grounded-generation
// collaborator. Both capabilities retrieve against a named corpus; neither
// exposes transport details to the application layer.
type GenerationService interface {
	// Discover analyzes a question against the discovery corpus and returns
	// the raw model output for the pipeline to parse.
	Discover(ctx context.Context, prompt, corpusID string) (*InvokeResult, error)

	// Generate produces a grounded answer against the document corpus. With
	// background set, the call may return before completion; the result then
	// carries a non-completed Status and the provider handle.
	Generate(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*InvokeResult, error)
}

// GraphProvider yields the loaded knowledge graph for a domain, loading it on
// first use and caching it for the process lifetime.
type GraphProvider interface {
	Graph(ctx context.Context, domainID string) (*aggregates.KnowledgeGraph, error)

	// Loaded returns the graph only if it is already cached.
	Loaded(domainID string) (*aggregates.KnowledgeGraph, bool)
}
