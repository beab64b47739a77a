package valueobjects

import (
	"ekg-backend/domain/core/entities"
)

// Subgraph is the ephemeral, per-request expansion result around a seed set.
// ExpandedIDs lists every node discovered within the visitation budget, in
// discovery order, seeds first. Edges may reference neighbors that were
// discovered but never expanded.
type Subgraph struct {
	SeedIDs     []string
	ExpandedIDs []string
	Edges       []entities.Edge
	Nodes       map[string]*entities.Node
}

// EmptySubgraph returns the expansion result for an empty seed set.
func EmptySubgraph() Subgraph {
	return Subgraph{
		SeedIDs:     []string{},
		ExpandedIDs: []string{},
		Edges:       []entities.Edge{},
		Nodes:       map[string]*entities.Node{},
	}
}

// IsEmpty reports whether the expansion found nothing at all.
func (s Subgraph) IsEmpty() bool {
	return len(s.ExpandedIDs) == 0 && len(s.Edges) == 0
}

// NodeName returns the display name for an expanded node, or ok=false when the
// node is not in the subgraph's table.
func (s Subgraph) NodeName(id string) (string, bool) {
	node, ok := s.Nodes[id]
	if !ok {
		return "", false
	}
	return node.Name(), true
}
