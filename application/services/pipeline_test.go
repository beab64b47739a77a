package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ekg-backend/application/ports"
	"ekg-backend/domain/config"
	"ekg-backend/domain/core/aggregates"
	"ekg-backend/domain/core/entities"
	"ekg-backend/pkg/observability"
)

type fakeGeneration struct {
	discoverFn func(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error)
	generateFn func(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error)

	lastGeneratePrompt string
}

func (f *fakeGeneration) Discover(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error) {
	return f.discoverFn(ctx, prompt, corpusID)
}

func (f *fakeGeneration) Generate(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
	f.lastGeneratePrompt = prompt
	return f.generateFn(ctx, prompt, corpusID, background, metadata)
}

func newTestPipeline(gen ports.GenerationService) *AnswerPipeline {
	return NewAnswerPipeline(gen, config.DefaultPipelineConfig(), observability.NewMetrics("test"), zap.NewNop())
}

func pipelineGraph(t *testing.T) *aggregates.KnowledgeGraph {
	return buildGraph(t, []entities.NodeRecord{
		{ID: "n1", Name: "Churn"},
		{ID: "n2", Name: "Revenue"},
	}, [][3]string{{"n1", "n2", "IMPACTS"}})
}

func TestPipelineHappyPath(t *testing.T) {
	gen := &fakeGeneration{
		discoverFn: func(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error) {
			return &ports.InvokeResult{
				Status:     "completed",
				OutputText: `{"stepback_question": "sb", "expanded_question": "ex", "entities": ["Churn"], "node_names": ["Churn"]}`,
			}, nil
		},
		generateFn: func(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
			assert.Equal(t, "docs-vs", corpusID)
			assert.Equal(t, "acme", metadata["domain"])
			return &ports.InvokeResult{
				ID:         "resp-1",
				Status:     "completed",
				OutputText: `{"answer": "Churn is rising.", "stepback_intent": "intent", "citations": ["handbook.pdf"]}`,
			}, nil
		},
	}

	p := newTestPipeline(gen)
	result := p.Run(context.Background(), RunRequest{
		Question:           "Why is churn rising?",
		Graph:              pipelineGraph(t),
		DomainID:           "acme",
		DomainName:         "Acme",
		DiscoveryCorpusID:  "kg-vs",
		GenerationCorpusID: "docs-vs",
	})

	require.Equal(t, StateCompleted, result.Meta.State)
	require.NotNil(t, result.Answer)
	assert.Contains(t, *result.Answer, "Churn is rising.")
	assert.Contains(t, *result.Answer, "### Sources")
	assert.Contains(t, *result.Answer, "[1] handbook.pdf")
	assert.Equal(t, "intent", result.StepbackIntent)
	assert.Equal(t, []string{"n1"}, result.Meta.SeedNodeIDs)
	assert.Equal(t, 2, result.Meta.ExpandedNodes)
	assert.Equal(t, 1, result.Meta.ExpandedEdges)
	assert.Equal(t, "resp-1", result.Meta.ResponseID)
	assert.False(t, result.Meta.Degraded)

	// The generation prompt embeds the rendered graph and the queries.
	assert.Contains(t, gen.lastGeneratePrompt, "KNOWLEDGE GRAPH CONTEXT")
	assert.Contains(t, gen.lastGeneratePrompt, "Why is churn rising?")
}

func TestPipelineDegradedDiscoveryStillAnswers(t *testing.T) {
	gen := &fakeGeneration{
		discoverFn: func(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error) {
			return nil, errors.New("discovery down")
		},
		generateFn: func(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
			return &ports.InvokeResult{Status: "completed", OutputText: "plain text answer"}, nil
		},
	}

	p := newTestPipeline(gen)
	result := p.Run(context.Background(), RunRequest{
		Question: "q",
		Graph:    pipelineGraph(t),
		DomainID: "acme",
	})

	require.Equal(t, StateCompleted, result.Meta.State)
	assert.True(t, result.Meta.Degraded)
	assert.Empty(t, result.Meta.SeedNodeIDs)
	assert.Equal(t, 0, result.Meta.ExpandedNodes)
	require.NotNil(t, result.Answer)
	assert.Equal(t, "plain text answer", *result.Answer)
	// No citations anywhere, so no Sources section.
	assert.NotContains(t, *result.Answer, "### Sources")
}

func TestPipelineUnparseableDiscoveryDegrades(t *testing.T) {
	gen := &fakeGeneration{
		discoverFn: func(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error) {
			return &ports.InvokeResult{Status: "completed", OutputText: "not json at all"}, nil
		},
		generateFn: func(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
			return &ports.InvokeResult{Status: "completed", OutputText: `{"answer": "fine"}`}, nil
		},
	}

	p := newTestPipeline(gen)
	result := p.Run(context.Background(), RunRequest{Question: "q", Graph: pipelineGraph(t), DomainID: "acme"})

	assert.True(t, result.Meta.Degraded)
	assert.Equal(t, StateCompleted, result.Meta.State)
}

func TestPipelineGenerationErrorNeverPropagates(t *testing.T) {
	gen := &fakeGeneration{
		discoverFn: func(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error) {
			return &ports.InvokeResult{Status: "completed", OutputText: `{"node_names": []}`}, nil
		},
		generateFn: func(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
			return nil, errors.New("model unavailable")
		},
	}

	p := newTestPipeline(gen)
	result := p.Run(context.Background(), RunRequest{Question: "q", Graph: pipelineGraph(t), DomainID: "acme"})

	require.Equal(t, StateFailed, result.Meta.State)
	require.NotNil(t, result.Answer)
	assert.Equal(t, "Error generating answer: model unavailable", *result.Answer)
	assert.Contains(t, result.Markdown, "# Error")
}

func TestPipelineBackgroundPending(t *testing.T) {
	gen := &fakeGeneration{
		discoverFn: func(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error) {
			return &ports.InvokeResult{Status: "completed", OutputText: `{"node_names": ["Churn"]}`}, nil
		},
		generateFn: func(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
			assert.True(t, background)
			return &ports.InvokeResult{ID: "bg-task-1", Status: "queued"}, nil
		},
	}

	p := newTestPipeline(gen)
	result := p.Run(context.Background(), RunRequest{
		Question: "q",
		Graph:    pipelineGraph(t),
		DomainID: "acme",
		Options:  RunOptions{Background: true},
	})

	require.Equal(t, StatePending, result.Meta.State)
	assert.Nil(t, result.Answer)
	assert.Contains(t, result.Markdown, "bg-task-1")
	assert.Equal(t, "bg-task-1", result.Meta.BackgroundTaskID)
	assert.Equal(t, "queued", result.Meta.BackgroundStatus)
	assert.True(t, result.Meta.BackgroundMode)
}

func TestPipelineAnnotationCitationFallback(t *testing.T) {
	gen := &fakeGeneration{
		discoverFn: func(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error) {
			return &ports.InvokeResult{Status: "completed", OutputText: `{"node_names": []}`}, nil
		},
		generateFn: func(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
			return &ports.InvokeResult{
				Status:     "completed",
				OutputText: `{"answer": "grounded"}`,
				Annotations: []ports.Annotation{
					{Filename: "a.pdf"},
					{Filename: "A.PDF"},
					{Title: "Quarterly Deck"},
					{FileID: "file-123"},
				},
			}, nil
		},
	}

	p := newTestPipeline(gen)
	result := p.Run(context.Background(), RunRequest{Question: "q", Graph: pipelineGraph(t), DomainID: "acme"})

	require.Len(t, result.Sources, 3)
	assert.Equal(t, "a.pdf", result.Sources[0].Source)
	assert.Equal(t, "Quarterly Deck", result.Sources[1].Source)
	assert.Equal(t, "file-123", result.Sources[2].Source)
	assert.Equal(t, "1", result.Sources[0].ID)
	assert.Equal(t, "3", result.Sources[2].ID)
}
