package kg

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ekg-backend/application/ports"
	"ekg-backend/domain/core/aggregates"
	pkgerrors "ekg-backend/pkg/errors"
)

// GraphCache is the process-wide cache of loaded domain graphs. A graph is
// fetched and parsed once, on first use; concurrent first requests for the
// same domain share a single load. Entries are never invalidated.
type GraphCache struct {
	registry ports.DomainRegistry
	fetcher  ArtifactFetcher
	logger   *zap.Logger

	mu     sync.RWMutex
	graphs map[string]*aggregates.KnowledgeGraph
	group  singleflight.Group
}

// NewGraphCache creates an empty cache.
func NewGraphCache(registry ports.DomainRegistry, fetcher ArtifactFetcher, logger *zap.Logger) *GraphCache {
	return &GraphCache{
		registry: registry,
		fetcher:  fetcher,
		logger:   logger,
		graphs:   make(map[string]*aggregates.KnowledgeGraph),
	}
}

// Graph returns the domain's graph, loading it on first use.
func (c *GraphCache) Graph(ctx context.Context, domainID string) (*aggregates.KnowledgeGraph, error) {
	domain, err := c.registry.Get(domainID)
	if err != nil {
		return nil, err
	}

	if graph, ok := c.Loaded(domain.ID); ok {
		return graph, nil
	}

	value, err, _ := c.group.Do(domain.ID, func() (interface{}, error) {
		// A concurrent caller may have finished the load already.
		if graph, ok := c.Loaded(domain.ID); ok {
			return graph, nil
		}

		data, err := c.fetcher.Fetch(ctx, domain.KGPath)
		if err != nil {
			return nil, pkgerrors.NewGraphLoadError(domain.ID, err)
		}
		graph, err := LoadGraph(domain.ID, data, c.logger)
		if err != nil {
			return nil, pkgerrors.NewGraphLoadError(domain.ID, err)
		}

		c.mu.Lock()
		c.graphs[domain.ID] = graph
		c.mu.Unlock()
		return graph, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*aggregates.KnowledgeGraph), nil
}

// Loaded returns the graph only if it is already cached.
func (c *GraphCache) Loaded(domainID string) (*aggregates.KnowledgeGraph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	graph, ok := c.graphs[domainID]
	return graph, ok
}
