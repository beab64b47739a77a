package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ekg-backend/domain/core/aggregates"
	"ekg-backend/domain/core/entities"
)

func buildGraph(t *testing.T, nodes []entities.NodeRecord, edges [][3]string) *aggregates.KnowledgeGraph {
	t.Helper()
	g := aggregates.NewKnowledgeGraph("test")
	for _, rec := range nodes {
		node, err := entities.ReconstructNode(rec)
		require.NoError(t, err)
		require.NoError(t, g.AddNode(node))
	}
	for _, e := range edges {
		edge, err := entities.NewEdge(e[0], e[1], e[2])
		require.NoError(t, err)
		require.NoError(t, g.AddEdge(edge))
	}
	return g
}

func TestResolveExactIndexHitTakesAllIDs(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "n1", Name: "Customer Churn"},
		{ID: "n2", Name: "customer churn"},
		{ID: "n3", Name: "Revenue"},
	}, nil)

	r := NewNameResolver(zap.NewNop())
	got := r.Resolve([]string{"Customer  Churn"}, g)

	assert.ElementsMatch(t, []string{"n1", "n2"}, got)
}

func TestResolveSubstringFallback(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "n1", Name: "Quarterly Revenue Report"},
	}, nil)

	r := NewNameResolver(zap.NewNop())

	// Candidate contained in a node name.
	assert.Equal(t, []string{"n1"}, r.Resolve([]string{"revenue report"}, g))
	// Node name contained in the candidate.
	assert.Equal(t, []string{"n1"}, r.Resolve([]string{"the quarterly revenue report from finance"}, g))
}

func TestResolveSkipsUnmatchedAndDedupes(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{
		{ID: "n1", Name: "Billing"},
	}, nil)

	r := NewNameResolver(zap.NewNop())
	got := r.Resolve([]string{"Billing", "billing", "no such thing", "  "}, g)

	assert.Equal(t, []string{"n1"}, got)
}

func TestResolveEmptyCandidates(t *testing.T) {
	g := buildGraph(t, []entities.NodeRecord{{ID: "n1", Name: "Billing"}}, nil)
	r := NewNameResolver(zap.NewNop())

	assert.Empty(t, r.Resolve(nil, g))
	assert.Empty(t, r.Resolve([]string{}, g))
}
