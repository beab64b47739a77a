package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ekg-backend/domain/core/entities"
	pkgerrors "ekg-backend/pkg/errors"
)

func mustNode(t *testing.T, rec entities.NodeRecord) *entities.Node {
	t.Helper()
	node, err := entities.ReconstructNode(rec)
	require.NoError(t, err)
	return node
}

func TestAddNodeRejectsDuplicates(t *testing.T) {
	g := NewKnowledgeGraph("acme")

	require.NoError(t, g.AddNode(mustNode(t, entities.NodeRecord{ID: "n1", Name: "Billing"})))
	err := g.AddNode(mustNode(t, entities.NodeRecord{ID: "n1", Name: "Billing Again"}))

	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, 1, g.NodeCount())
}

func TestNameIndexCoversAliasesAndCollisions(t *testing.T) {
	g := NewKnowledgeGraph("acme")

	require.NoError(t, g.AddNode(mustNode(t, entities.NodeRecord{
		ID:      "n1",
		Name:    "Invoice  Processing",
		Aliases: []string{"Billing Run"},
	})))
	require.NoError(t, g.AddNode(mustNode(t, entities.NodeRecord{
		ID:   "n2",
		Name: "invoice processing",
	})))

	ids, ok := g.LookupName("invoice processing")
	require.True(t, ok)
	assert.Equal(t, []string{"n1", "n2"}, ids)

	ids, ok = g.LookupName("billing run")
	require.True(t, ok)
	assert.Equal(t, []string{"n1"}, ids)

	assert.True(t, g.HasNameIndex())
}

func TestAddEdgeAllowsDanglingEndpointsAndParallels(t *testing.T) {
	g := NewKnowledgeGraph("acme")
	require.NoError(t, g.AddNode(mustNode(t, entities.NodeRecord{ID: "a", Name: "A"})))

	e1, err := entities.NewEdge("a", "ghost", "USES")
	require.NoError(t, err)
	e2, err := entities.NewEdge("a", "ghost", "OWNS")
	require.NoError(t, err)

	require.NoError(t, g.AddEdge(e1))
	require.NoError(t, g.AddEdge(e2))

	assert.Equal(t, 2, g.EdgeCount())
	assert.Len(t, g.Outgoing("a"), 2)
	assert.Len(t, g.Incoming("ghost"), 2)
	assert.False(t, g.HasNode("ghost"))
}

func TestAddEdgeRejectsEmptyEndpoints(t *testing.T) {
	g := NewKnowledgeGraph("acme")
	err := g.AddEdge(entities.Edge{SourceID: "", TargetID: "b", Type: "USES"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "invoice processing", NormalizeName("  Invoice\t Processing "))
	assert.Equal(t, "", NormalizeName("   "))
	assert.Equal(t, "a b c", NormalizeName("A  B\nC"))
}
