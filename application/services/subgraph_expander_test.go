package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ekg-backend/domain/config"
	"ekg-backend/domain/core/entities"
)

func TestExpandEmptySeeds(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{{ID: "a", Name: "A"}}, nil)
	e := NewSubgraphExpander(zap.NewNop())

	sub := e.Expand(g, nil, config.DefaultPipelineConfig())

	assert.True(t, sub.IsEmpty())
	assert.NotNil(t, sub.Edges)
	assert.NotNil(t, sub.Nodes)
}

func TestExpandOneHopBothDirections(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
		{ID: "d", Name: "D"},
	}, [][3]string{
		{"a", "b", "USES"},
		{"c", "a", "OWNS"},
		{"b", "d", "USES"},
	})

	e := NewSubgraphExpander(zap.NewNop())
	sub := e.Expand(g, []string{"a"}, config.DefaultPipelineConfig())

	// One hop from a reaches b (outgoing) and c (incoming), and b's edges are
	// still emitted because b gets processed, even though d is beyond the hop
	// limit.
	assert.Equal(t, []string{"a", "b", "c"}, sub.ExpandedIDs)
	assert.Len(t, sub.Edges, 3)
	_, hasD := sub.Nodes["d"]
	assert.False(t, hasD)
}

func TestExpandBudgetCapsEnqueueNotProcessing(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
		{ID: "d", Name: "D"},
	}, [][3]string{
		{"a", "b", "R"},
		{"a", "c", "R"},
		{"a", "d", "R"},
	})

	cfg := config.DefaultPipelineConfig()
	cfg.MaxExpandedNodes = 2

	e := NewSubgraphExpander(zap.NewNop())
	sub := e.Expand(g, []string{"a"}, cfg)

	// Budget of 2 admits the seed and one neighbor, but all three of a's
	// edges are emitted because a itself is processed.
	assert.Len(t, sub.ExpandedIDs, 2)
	assert.Equal(t, "a", sub.ExpandedIDs[0])
	assert.Len(t, sub.Edges, 3)
}

func TestExpandDeduplicatesParallelEdgesKeepingFirstEvidence(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}, nil)

	first, err := entities.NewEdge("a", "b", "USES")
	require.NoError(t, err)
	first.Evidence = "kept"
	second, err := entities.NewEdge("a", "b", "USES")
	require.NoError(t, err)
	second.Evidence = "dropped"
	distinct, err := entities.NewEdge("a", "b", "OWNS")
	require.NoError(t, err)

	require.NoError(t, g.AddEdge(first))
	require.NoError(t, g.AddEdge(second))
	require.NoError(t, g.AddEdge(distinct))

	e := NewSubgraphExpander(zap.NewNop())
	sub := e.Expand(g, []string{"a"}, config.DefaultPipelineConfig())

	require.Len(t, sub.Edges, 2)
	assert.Equal(t, "kept", sub.Edges[0].Evidence)
	assert.Equal(t, "OWNS", sub.Edges[1].Type)
}

func TestExpandFiltersEdgesByAllowedTypes(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
	}, [][3]string{
		{"a", "b", "USES"},
		{"a", "c", "OWNS"},
	})

	cfg := config.DefaultPipelineConfig()
	cfg.EdgeTypes = []string{"USES"}

	e := NewSubgraphExpander(zap.NewNop())
	sub := e.Expand(g, []string{"a"}, cfg)

	// Only USES edges survive, but traversal still crosses the filtered OWNS
	// edge, so c is expanded.
	require.Len(t, sub.Edges, 1)
	assert.Equal(t, "USES", sub.Edges[0].Type)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, sub.ExpandedIDs)
}

func TestExpandEmptyAllowListAdmitsEveryType(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}, [][3]string{
		{"a", "b", "USES"},
		{"b", "a", "OWNS"},
	})

	e := NewSubgraphExpander(zap.NewNop())
	sub := e.Expand(g, []string{"a"}, config.DefaultPipelineConfig())

	assert.Len(t, sub.Edges, 2)
}

func TestExpandSkipsSeedsMissingFromGraph(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}, [][3]string{{"a", "b", "R"}})

	e := NewSubgraphExpander(zap.NewNop())
	sub := e.Expand(g, []string{"ghost", "a"}, config.DefaultPipelineConfig())

	// The unknown seed occupies a budget slot but contributes nothing.
	assert.Contains(t, sub.ExpandedIDs, "ghost")
	assert.Contains(t, sub.ExpandedIDs, "a")
	_, ok := sub.Nodes["ghost"]
	assert.False(t, ok)
	assert.Len(t, sub.Edges, 1)
}

func TestExpandTwoHops(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
	}, [][3]string{
		{"a", "b", "R"},
		{"b", "c", "R"},
	})

	cfg := config.DefaultPipelineConfig()
	cfg.Hops = 2

	e := NewSubgraphExpander(zap.NewNop())
	sub := e.Expand(g, []string{"a"}, cfg)

	assert.Equal(t, []string{"a", "b", "c"}, sub.ExpandedIDs)
	assert.Len(t, sub.Edges, 2)
}
