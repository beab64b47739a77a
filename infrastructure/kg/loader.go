package kg

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"ekg-backend/domain/core/aggregates"
	"ekg-backend/domain/core/entities"
	pkgerrors "ekg-backend/pkg/errors"
)

// flexString accepts JSON strings and numbers; extraction tools are not
// consistent about node id types.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// artifactDocument is the on-disk graph format.
type artifactDocument struct {
	Nodes []artifactNode `json:"nodes"`
	Edges []artifactEdge `json:"edges"`
}

type artifactNode struct {
	ID              flexString             `json:"id"`
	Name            string                 `json:"name"`
	NodeName        string                 `json:"node_name"`
	Label           string                 `json:"label"`
	NodeType        string                 `json:"node_type"`
	Type            string                 `json:"type"`
	Description     string                 `json:"description"`
	Aliases         []string               `json:"aliases"`
	SourceDocuments []string               `json:"source_documents"`
	Metadata        map[string]interface{} `json:"metadata"`
}

type artifactEdge struct {
	Source          flexString `json:"source"`
	Target          flexString `json:"target"`
	Type            string     `json:"type"`
	Label           string     `json:"label"`
	Evidence        string     `json:"evidence"`
	SourceDocuments []string   `json:"source_documents"`
}

// LoadGraph parses a JSON graph artifact into the aggregate. Nodes without an
// id and duplicate ids are skipped with a warning; edge types fall back to
// the label field and then to the RELATED default.
func LoadGraph(domainID string, data []byte, logger *zap.Logger) (*aggregates.KnowledgeGraph, error) {
	var doc artifactDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.Wrap(err, "parsing graph artifact")
	}
	if len(doc.Nodes) == 0 {
		return nil, pkgerrors.NewValidationError("graph artifact has no nodes")
	}

	graph := aggregates.NewKnowledgeGraph(domainID)
	skippedNodes := 0

	for _, raw := range doc.Nodes {
		node, err := entities.ReconstructNode(entities.NodeRecord{
			ID:              string(raw.ID),
			Name:            raw.Name,
			NodeName:        raw.NodeName,
			Label:           raw.Label,
			NodeType:        raw.NodeType,
			Type:            raw.Type,
			Description:     raw.Description,
			Aliases:         raw.Aliases,
			SourceDocuments: raw.SourceDocuments,
			Metadata:        raw.Metadata,
		})
		if err != nil {
			skippedNodes++
			continue
		}
		if err := graph.AddNode(node); err != nil {
			skippedNodes++
		}
	}

	skippedEdges := 0
	for _, raw := range doc.Edges {
		edgeType := raw.Type
		if edgeType == "" {
			edgeType = raw.Label
		}
		edge, err := entities.NewEdge(string(raw.Source), string(raw.Target), edgeType)
		if err != nil {
			skippedEdges++
			continue
		}
		edge.Evidence = strings.TrimSpace(raw.Evidence)
		edge.SourceDocuments = raw.SourceDocuments
		if err := graph.AddEdge(edge); err != nil {
			skippedEdges++
		}
	}

	if skippedNodes > 0 || skippedEdges > 0 {
		logger.Warn("graph artifact had malformed entries",
			zap.String("domain", domainID),
			zap.Int("skipped_nodes", skippedNodes),
			zap.Int("skipped_edges", skippedEdges),
		)
	}

	logger.Info("graph loaded",
		zap.String("domain", domainID),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
	)
	return graph, nil
}
