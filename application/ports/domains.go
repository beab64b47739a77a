package ports

// Domain describes one tenant of the system: where its graph artifact lives
// and which corpora its questions retrieve against.
type Domain struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// KGPath locates the graph artifact, either s3://bucket/key or a local
	// file path.
	KGPath string `json:"kg_path"`

	// DocCorpusID is the document vector store answers are grounded on.
	DocCorpusID string `json:"doc_vectorstore_id"`

	// KGCorpusID is the vector store used for node discovery. Empty means
	// discovery falls back to DocCorpusID.
	KGCorpusID string `json:"kg_vectorstore_id,omitempty"`

	// Optional per-domain pipeline overrides, zero means use defaults. An
	// empty EdgeTypes list admits every edge type during expansion.
	Hops        int      `json:"hops,omitempty"`
	MaxExpanded int      `json:"max_expanded,omitempty"`
	MaxQueries  int      `json:"max_queries,omitempty"`
	EdgeTypes   []string `json:"edge_types,omitempty"`
}

// DomainRegistry is the lookup surface for registered domains. Lookups are
// case-insensitive and trimmed.
type DomainRegistry interface {
	Get(domainID string) (*Domain, error)
	List() []*Domain
	Exists(domainID string) bool
}
