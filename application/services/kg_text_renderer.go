package services

import (
	"strings"

	"ekg-backend/domain/config"
	"ekg-backend/domain/core/valueobjects"
)

// KGTextRenderer turns an expanded subgraph into the plain-text context block
// embedded in the generation prompt.
type KGTextRenderer struct{}

// NewKGTextRenderer creates a renderer.
func NewKGTextRenderer() *KGTextRenderer {
	return &KGTextRenderer{}
}

// Render lists up to cfg.MaxRenderedNodes entities as "• name (type)" and up
// to cfg.MaxRenderedEdges relationships as "• source --[type]→ target",
// wrapped in framing that tells the model to use the structure internally and
// never quote it. Unresolvable edge endpoints render as "?". An empty
// subgraph renders to an empty string.
func (r *KGTextRenderer) Render(sub valueobjects.Subgraph, cfg *config.PipelineConfig) string {
	if sub.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("KNOWLEDGE GRAPH CONTEXT (for reasoning, not for quotation):\n")

	ids := sub.ExpandedIDs
	if len(ids) > cfg.MaxRenderedNodes {
		ids = ids[:cfg.MaxRenderedNodes]
	}
	if len(ids) > 0 {
		b.WriteString("\nENTITIES:\n")
		for _, id := range ids {
			name, ok := sub.NodeName(id)
			if !ok {
				continue
			}
			nodeType := ""
			if node, found := sub.Nodes[id]; found {
				nodeType = node.Type()
			}
			b.WriteString("• " + name + " (" + nodeType + ")\n")
		}
	}

	edges := sub.Edges
	if len(edges) > cfg.MaxRenderedEdges {
		edges = edges[:cfg.MaxRenderedEdges]
	}
	if len(edges) > 0 {
		b.WriteString("\nRELATIONSHIPS:\n")
		for _, edge := range edges {
			b.WriteString("• " + r.endpointName(sub, edge.SourceID) +
				" --[" + edge.Type + "]→ " +
				r.endpointName(sub, edge.TargetID) + "\n")
		}
	}

	b.WriteString("\nUse this structure to understand how concepts relate. ")
	b.WriteString("Base the answer and all quotations on the retrieved documents only.\n")
	return b.String()
}

func (r *KGTextRenderer) endpointName(sub valueobjects.Subgraph, id string) string {
	if name, ok := sub.NodeName(id); ok && name != "" {
		return name
	}
	return "?"
}
