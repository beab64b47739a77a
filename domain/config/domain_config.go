package config

import "fmt"

// PipelineConfig holds the tunable limits for one pipeline run: how far to
// walk the graph, how many nodes to visit, how many retrieval queries to
// build, and how much of the subgraph to render into the prompt.
type PipelineConfig struct {
	// Graph expansion. An empty EdgeTypes list admits every edge type.
	Hops             int
	MaxExpandedNodes int
	EdgeTypes        []string

	// Query synthesis
	MaxQueries             int
	EntityNameWindow       int
	MaxEntityQueries       int
	MaxRelationshipQueries int

	// Prompt rendering
	MaxRenderedNodes int
	MaxRenderedEdges int
}

// DefaultPipelineConfig returns the balanced preset.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Hops:             1,
		MaxExpandedNodes: 60,

		MaxQueries:             12,
		EntityNameWindow:       8,
		MaxEntityQueries:       5,
		MaxRelationshipQueries: 10,

		MaxRenderedNodes: 40,
		MaxRenderedEdges: 50,
	}
}

// WithOverrides returns a copy with any positive override applied.
func (c *PipelineConfig) WithOverrides(hops, maxExpanded, maxQueries int) *PipelineConfig {
	out := *c
	if hops > 0 {
		out.Hops = hops
	}
	if maxExpanded > 0 {
		out.MaxExpandedNodes = maxExpanded
	}
	if maxQueries > 0 {
		out.MaxQueries = maxQueries
	}
	return &out
}

// Validate checks the configuration is internally consistent.
func (c *PipelineConfig) Validate() error {
	if c.Hops < 0 {
		return fmt.Errorf("hops cannot be negative: %d", c.Hops)
	}
	if c.MaxExpandedNodes < 1 {
		return fmt.Errorf("max expanded nodes must be positive: %d", c.MaxExpandedNodes)
	}
	if c.MaxQueries < 1 {
		return fmt.Errorf("max queries must be positive: %d", c.MaxQueries)
	}
	if c.MaxRenderedNodes < 0 || c.MaxRenderedEdges < 0 {
		return fmt.Errorf("render caps cannot be negative")
	}
	return nil
}
