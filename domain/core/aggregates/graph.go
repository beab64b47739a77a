package aggregates

import (
	"strings"

	"ekg-backend/domain/core/entities"
	pkgerrors "ekg-backend/pkg/errors"
)

// KnowledgeGraph is the aggregate root for one domain's graph. It is built
// once from an artifact and read-only afterwards: a directed multigraph with
// parallel typed edges, a node table, and a normalized-name index.
type KnowledgeGraph struct {
	domainID  string
	nodes     map[string]*entities.Node
	outgoing  map[string][]entities.Edge
	incoming  map[string][]entities.Edge
	nameIndex map[string][]string
	edgeCount int
}

// NewKnowledgeGraph creates an empty graph for a domain.
func NewKnowledgeGraph(domainID string) *KnowledgeGraph {
	return &KnowledgeGraph{
		domainID:  domainID,
		nodes:     make(map[string]*entities.Node),
		outgoing:  make(map[string][]entities.Edge),
		incoming:  make(map[string][]entities.Edge),
		nameIndex: make(map[string][]string),
	}
}

// DomainID returns the owning domain's identifier.
func (g *KnowledgeGraph) DomainID() string {
	return g.domainID
}

// AddNode inserts a node and indexes its name and aliases.
func (g *KnowledgeGraph) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := g.nodes[node.ID()]; exists {
		return pkgerrors.NewConflictError("node already exists: " + node.ID())
	}

	g.nodes[node.ID()] = node
	g.indexName(node.Name(), node.ID())
	for _, alias := range node.Aliases() {
		g.indexName(alias, node.ID())
	}
	return nil
}

// AddEdge appends a directed edge. Endpoints are not required to exist in the
// node table; artifact edges may reference nodes the extraction dropped.
func (g *KnowledgeGraph) AddEdge(edge entities.Edge) error {
	if edge.SourceID == "" || edge.TargetID == "" {
		return pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	g.outgoing[edge.SourceID] = append(g.outgoing[edge.SourceID], edge)
	g.incoming[edge.TargetID] = append(g.incoming[edge.TargetID], edge)
	g.edgeCount++
	return nil
}

// HasNode reports whether a node id is present in the node table.
func (g *KnowledgeGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns a node by id.
func (g *KnowledgeGraph) Node(id string) (*entities.Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Nodes returns the node table. Callers must treat it as read-only.
func (g *KnowledgeGraph) Nodes() map[string]*entities.Node {
	return g.nodes
}

// Outgoing returns the edges leaving a node, in insertion order.
func (g *KnowledgeGraph) Outgoing(id string) []entities.Edge {
	return g.outgoing[id]
}

// Incoming returns the edges arriving at a node, in insertion order.
func (g *KnowledgeGraph) Incoming(id string) []entities.Edge {
	return g.incoming[id]
}

// LookupName resolves a normalized name or alias to node ids. A name that maps
// to several nodes returns all of them.
func (g *KnowledgeGraph) LookupName(normalized string) ([]string, bool) {
	ids, ok := g.nameIndex[normalized]
	return ids, ok
}

// HasNameIndex reports whether any names were indexed at load.
func (g *KnowledgeGraph) HasNameIndex() bool {
	return len(g.nameIndex) > 0
}

// NodeCount returns the number of nodes in the table.
func (g *KnowledgeGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges, counting parallels.
func (g *KnowledgeGraph) EdgeCount() int {
	return g.edgeCount
}

func (g *KnowledgeGraph) indexName(name, id string) {
	key := NormalizeName(name)
	if key == "" {
		return
	}
	for _, existing := range g.nameIndex[key] {
		if existing == id {
			return
		}
	}
	g.nameIndex[key] = append(g.nameIndex[key], id)
}

// NormalizeName lowercases, trims, and collapses internal whitespace. All name
// matching in the system goes through this one normalization.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
