package services

import (
	"go.uber.org/zap"

	"ekg-backend/domain/config"
	"ekg-backend/domain/core/aggregates"
	"ekg-backend/domain/core/entities"
	"ekg-backend/domain/core/valueobjects"
)

// SubgraphExpander walks the graph outward from a seed set with a breadth
// first search over both edge directions.
type SubgraphExpander struct {
	logger *zap.Logger
}

// NewSubgraphExpander creates a subgraph expander.
func NewSubgraphExpander(logger *zap.Logger) *SubgraphExpander {
	return &SubgraphExpander{logger: logger}
}

type queued struct {
	id    string
	depth int
}

// Expand runs a BFS from the seeds, bounded by cfg.Hops and the visitation
// budget cfg.MaxExpandedNodes. The budget caps how many distinct nodes are
// ever enqueued, seeds included; nodes already queued when the budget fills
// are still processed. Every edge touching a processed node is emitted, in
// both directions, so the edge list may reference neighbors that were
// discovered but never expanded. A non-empty cfg.EdgeTypes restricts which
// edge types are emitted; traversal still crosses filtered edges. Edges are
// deduplicated on the (source, target, type) triple; the first record keeps
// its evidence, duplicates are discarded along with theirs.
func (e *SubgraphExpander) Expand(graph *aggregates.KnowledgeGraph, seedIDs []string, cfg *config.PipelineConfig) valueobjects.Subgraph {
	if len(seedIDs) == 0 {
		return valueobjects.EmptySubgraph()
	}

	allowed := make(map[string]bool, len(cfg.EdgeTypes))
	for _, edgeType := range cfg.EdgeTypes {
		allowed[edgeType] = true
	}

	seen := make(map[string]bool, cfg.MaxExpandedNodes)
	order := make([]string, 0, cfg.MaxExpandedNodes)
	queue := make([]queued, 0, len(seedIDs))

	for _, id := range seedIDs {
		if seen[id] || len(seen) >= cfg.MaxExpandedNodes {
			continue
		}
		seen[id] = true
		order = append(order, id)
		queue = append(queue, queued{id: id, depth: 0})
	}

	var edges []entities.Edge
	emitted := make(map[entities.EdgeKey]bool)

	emit := func(edge entities.Edge) {
		if len(allowed) > 0 && !allowed[edge.Type] {
			return
		}
		key := edge.Key()
		if emitted[key] {
			return
		}
		emitted[key] = true
		edges = append(edges, edge)
	}

	visit := func(neighbor string, depth int) {
		if seen[neighbor] || depth >= cfg.Hops || len(seen) >= cfg.MaxExpandedNodes {
			return
		}
		seen[neighbor] = true
		order = append(order, neighbor)
		queue = append(queue, queued{id: neighbor, depth: depth + 1})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if !graph.HasNode(current.id) {
			continue
		}

		for _, edge := range graph.Outgoing(current.id) {
			emit(edge)
			visit(edge.TargetID, current.depth)
		}
		for _, edge := range graph.Incoming(current.id) {
			emit(edge)
			visit(edge.SourceID, current.depth)
		}
	}

	if edges == nil {
		edges = []entities.Edge{}
	}

	nodes := make(map[string]*entities.Node, len(order))
	for _, id := range order {
		if node, ok := graph.Node(id); ok {
			nodes[id] = node
		}
	}

	e.logger.Debug("subgraph expanded",
		zap.Int("seeds", len(seedIDs)),
		zap.Int("nodes", len(order)),
		zap.Int("edges", len(edges)),
	)

	return valueobjects.Subgraph{
		SeedIDs:     seedIDs,
		ExpandedIDs: order,
		Edges:       edges,
		Nodes:       nodes,
	}
}
