package entities

import (
	pkgerrors "ekg-backend/pkg/errors"
)

// DefaultNodeType is assigned when an artifact carries no type information.
const DefaultNodeType = "Entity"

// NodeRecord carries the raw attributes of one node as they appear in a graph
// artifact. Competing attribute spellings (name/node_name/label, node_type/type)
// are all captured here and resolved once by ReconstructNode.
type NodeRecord struct {
	ID              string
	Name            string
	NodeName        string
	Label           string
	NodeType        string
	Type            string
	Description     string
	Aliases         []string
	SourceDocuments []string
	Metadata        map[string]interface{}
}

// Node is a single knowledge-graph entity. Nodes are immutable after load;
// the display name and type are resolved once at construction.
type Node struct {
	id              string
	name            string
	nodeType        string
	description     string
	aliases         []string
	sourceDocuments []string
	metadata        map[string]interface{}
}

// ReconstructNode builds a node from artifact data.
// Display name precedence: name > node_name > label > id.
// Type precedence: node_type > type > DefaultNodeType.
func ReconstructNode(rec NodeRecord) (*Node, error) {
	if rec.ID == "" {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}

	name := rec.Name
	if name == "" {
		name = rec.NodeName
	}
	if name == "" {
		name = rec.Label
	}
	if name == "" {
		name = rec.ID
	}

	nodeType := rec.NodeType
	if nodeType == "" {
		nodeType = rec.Type
	}
	if nodeType == "" {
		nodeType = DefaultNodeType
	}

	return &Node{
		id:              rec.ID,
		name:            name,
		nodeType:        nodeType,
		description:     rec.Description,
		aliases:         rec.Aliases,
		sourceDocuments: rec.SourceDocuments,
		metadata:        rec.Metadata,
	}, nil
}

// ID returns the node's unique identifier.
func (n *Node) ID() string {
	return n.id
}

// Name returns the resolved display name.
func (n *Node) Name() string {
	return n.name
}

// Type returns the resolved node type.
func (n *Node) Type() string {
	return n.nodeType
}

// Description returns the node's description, which may be empty.
func (n *Node) Description() string {
	return n.description
}

// Aliases returns alternative names for this node.
func (n *Node) Aliases() []string {
	aliases := make([]string, len(n.aliases))
	copy(aliases, n.aliases)
	return aliases
}

// SourceDocuments returns the documents this node was extracted from.
func (n *Node) SourceDocuments() []string {
	docs := make([]string, len(n.sourceDocuments))
	copy(docs, n.sourceDocuments)
	return docs
}

// Metadata returns any extra attributes carried by the artifact.
func (n *Node) Metadata() map[string]interface{} {
	return n.metadata
}
