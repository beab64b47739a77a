package domains

import (
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"ekg-backend/application/ports"
	"ekg-backend/infrastructure/config"
	pkgerrors "ekg-backend/pkg/errors"
)

// domainsFile is the YAML shape of the registry file.
type domainsFile struct {
	Domains []domainEntry `yaml:"domains"`
}

type domainEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	KGPath      string `yaml:"kg_path"`
	DocCorpusID string `yaml:"doc_vectorstore_id"`
	KGCorpusID  string `yaml:"kg_vectorstore_id"`
	Hops        int      `yaml:"hops"`
	MaxExpanded int      `yaml:"max_expanded"`
	MaxQueries  int      `yaml:"max_queries"`
	EdgeTypes   []string `yaml:"edge_types"`
}

// Registry is the in-memory domain registry. Domains are loaded once at
// startup from a YAML file, or from the single-domain env fallback.
type Registry struct {
	mu      sync.RWMutex
	domains map[string]*ports.Domain
	order   []string
}

// NewRegistry creates a registry from explicit domains.
func NewRegistry(domains ...*ports.Domain) *Registry {
	r := &Registry{domains: make(map[string]*ports.Domain)}
	for _, d := range domains {
		r.register(d)
	}
	return r
}

// NewRegistryFromConfig builds the registry: from the configured YAML file if
// one is set, otherwise a single domain from the env fallback fields.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg.DomainsFile != "" {
		return NewRegistryFromFile(cfg.DomainsFile, cfg)
	}

	return NewRegistry(&ports.Domain{
		ID:          cfg.PrimaryDomainID,
		Name:        cfg.PrimaryDomainName,
		KGPath:      cfg.PrimaryKGPath,
		DocCorpusID: cfg.DocVectorStoreID,
		KGCorpusID:  cfg.KGVectorStoreID,
	}), nil
}

// NewRegistryFromFile loads the registry from a YAML file. Entries without
// corpus ids inherit the config defaults.
func NewRegistryFromFile(path string, cfg *config.Config) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading domains file")
	}

	var file domainsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, pkgerrors.Wrap(err, "parsing domains file")
	}
	if len(file.Domains) == 0 {
		return nil, pkgerrors.NewValidationError("domains file defines no domains")
	}

	r := NewRegistry()
	for _, entry := range file.Domains {
		if entry.ID == "" {
			return nil, pkgerrors.NewValidationError("domain entry is missing an id")
		}
		domain := &ports.Domain{
			ID:          entry.ID,
			Name:        entry.Name,
			Description: entry.Description,
			KGPath:      entry.KGPath,
			DocCorpusID: entry.DocCorpusID,
			KGCorpusID:  entry.KGCorpusID,
			Hops:        entry.Hops,
			MaxExpanded: entry.MaxExpanded,
			MaxQueries:  entry.MaxQueries,
			EdgeTypes:   entry.EdgeTypes,
		}
		if domain.Name == "" {
			domain.Name = domain.ID
		}
		if domain.DocCorpusID == "" {
			domain.DocCorpusID = cfg.DocVectorStoreID
		}
		if domain.KGCorpusID == "" {
			domain.KGCorpusID = cfg.KGVectorStoreID
		}
		r.register(domain)
	}
	return r, nil
}

func (r *Registry) register(d *ports.Domain) {
	key := normalizeID(d.ID)
	if _, exists := r.domains[key]; !exists {
		r.order = append(r.order, key)
	}
	r.domains[key] = d
}

// Get returns a domain by id, case-insensitively. Unknown domains produce a
// not-found error listing what is registered.
func (r *Registry) Get(domainID string) (*ports.Domain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domain, ok := r.domains[normalizeID(domainID)]
	if !ok {
		return nil, pkgerrors.NewUnknownDomainError(domainID, r.idsLocked())
	}
	return domain, nil
}

// Exists reports whether a domain id is registered.
func (r *Registry) Exists(domainID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.domains[normalizeID(domainID)]
	return ok
}

// List returns all domains in registration order.
func (r *Registry) List() []*ports.Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ports.Domain, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.domains[key])
	}
	return out
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.order))
	for _, key := range r.order {
		ids = append(ids, r.domains[key].ID)
	}
	return ids
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
