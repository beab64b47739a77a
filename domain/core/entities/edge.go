package entities

import (
	pkgerrors "ekg-backend/pkg/errors"
)

// DefaultEdgeType is assigned when an artifact edge carries no type or label.
const DefaultEdgeType = "RELATED"

// Edge is a directed, typed relationship between two nodes. The graph is a
// multigraph: several edges may share the same endpoints, distinguished by
// type and by insertion order when the type repeats.
type Edge struct {
	SourceID        string
	TargetID        string
	Type            string
	Evidence        string
	SourceDocuments []string
}

// EdgeKey identifies an edge by its (source, target, type) triple.
type EdgeKey struct {
	SourceID string
	TargetID string
	Type     string
}

// NewEdge builds an edge, defaulting the type to DefaultEdgeType.
func NewEdge(sourceID, targetID, edgeType string) (Edge, error) {
	if sourceID == "" || targetID == "" {
		return Edge{}, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if edgeType == "" {
		edgeType = DefaultEdgeType
	}
	return Edge{
		SourceID: sourceID,
		TargetID: targetID,
		Type:     edgeType,
	}, nil
}

// Key returns the dedupe key for this edge.
func (e Edge) Key() EdgeKey {
	return EdgeKey{SourceID: e.SourceID, TargetID: e.TargetID, Type: e.Type}
}
