package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ekg-backend/domain/config"
	"ekg-backend/domain/core/entities"
	"ekg-backend/domain/core/valueobjects"
)

func subgraphFromNames(t *testing.T, names map[string]string, ids []string, edges []entities.Edge) valueobjects.Subgraph {
	t.Helper()
	nodes := make(map[string]*entities.Node, len(names))
	for id, name := range names {
		node, err := entities.ReconstructNode(entities.NodeRecord{ID: id, Name: name, NodeType: "Concept"})
		require.NoError(t, err)
		nodes[id] = node
	}
	if edges == nil {
		edges = []entities.Edge{}
	}
	return valueobjects.Subgraph{
		SeedIDs:     ids,
		ExpandedIDs: ids,
		Edges:       edges,
		Nodes:       nodes,
	}
}

func TestSynthesizeOrderingAndDedupe(t *testing.T) {
	sub := subgraphFromNames(t,
		map[string]string{"n1": "Churn", "n2": "Revenue"},
		[]string{"n1", "n2"},
		[]entities.Edge{{SourceID: "n1", TargetID: "n2", Type: "IMPACTS"}},
	)
	analysis := valueobjects.QuestionAnalysis{
		StepbackQuestion: "What drives customer loss?",
		ExpandedQuestion: "why is churn rising",   // duplicates the question case-insensitively
	}

	s := NewQuerySynthesizer(zap.NewNop())
	got := s.Synthesize("Why is churn rising", analysis, sub, config.DefaultPipelineConfig())

	assert.Equal(t, []string{
		"Why is churn rising",
		"What drives customer loss?",
		"Why is churn rising Churn",
		"Why is churn rising Revenue",
		"Churn IMPACTS Revenue",
	}, got)
}

func TestSynthesizeDegradedEmptySubgraph(t *testing.T) {
	s := NewQuerySynthesizer(zap.NewNop())
	analysis := valueobjects.DegradedAnalysis("the question")

	got := s.Synthesize("the question", analysis, valueobjects.EmptySubgraph(), config.DefaultPipelineConfig())

	assert.Equal(t, []string{"the question"}, got)
}

func TestSynthesizeEntityWindowAndCaps(t *testing.T) {
	names := make(map[string]string)
	var ids []string
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("n%d", i)
		names[id] = fmt.Sprintf("Entity%d", i)
		ids = append(ids, id)
	}
	sub := subgraphFromNames(t, names, ids, nil)

	s := NewQuerySynthesizer(zap.NewNop())
	got := s.Synthesize("q", valueobjects.QuestionAnalysis{}, sub, config.DefaultPipelineConfig())

	// Question plus at most MaxEntityQueries entity pairings drawn from the
	// first EntityNameWindow expanded ids.
	require.Len(t, got, 6)
	assert.Equal(t, "q Entity0", got[1])
	assert.Equal(t, "q Entity4", got[5])
}

func TestSynthesizeSkipsEdgesWithUnknownEndpoints(t *testing.T) {
	sub := subgraphFromNames(t,
		map[string]string{"n1": "Churn"},
		[]string{"n1"},
		[]entities.Edge{
			{SourceID: "n1", TargetID: "ghost", Type: "IMPACTS"},
			{SourceID: "ghost", TargetID: "n1", Type: "IMPACTS"},
		},
	)

	s := NewQuerySynthesizer(zap.NewNop())
	got := s.Synthesize("q", valueobjects.QuestionAnalysis{}, sub, config.DefaultPipelineConfig())

	assert.Equal(t, []string{"q", "q Churn"}, got)
}

func TestSynthesizeTruncatesToMaxQueries(t *testing.T) {
	names := make(map[string]string)
	var ids []string
	var edges []entities.Edge
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("n%d", i)
		names[id] = fmt.Sprintf("Entity%d", i)
		ids = append(ids, id)
	}
	for i := 0; i < 29; i++ {
		edges = append(edges, entities.Edge{
			SourceID: fmt.Sprintf("n%d", i),
			TargetID: fmt.Sprintf("n%d", i+1),
			Type:     "LINKS",
		})
	}
	sub := subgraphFromNames(t, names, ids, edges)

	cfg := config.DefaultPipelineConfig()
	cfg.MaxQueries = 7

	s := NewQuerySynthesizer(zap.NewNop())
	got := s.Synthesize("q", valueobjects.QuestionAnalysis{StepbackQuestion: "sb", ExpandedQuestion: "ex"}, sub, cfg)

	assert.Len(t, got, 7)
	assert.Equal(t, "q", got[0])
}
