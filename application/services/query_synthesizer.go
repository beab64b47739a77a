package services

import (
	"strings"

	"go.uber.org/zap"

	"ekg-backend/domain/config"
	"ekg-backend/domain/core/valueobjects"
)

// QuerySynthesizer builds the ordered list of retrieval queries that guide
// grounded generation.
type QuerySynthesizer struct {
	logger *zap.Logger
}

// NewQuerySynthesizer creates a query synthesizer.
func NewQuerySynthesizer(logger *zap.Logger) *QuerySynthesizer {
	return &QuerySynthesizer{logger: logger}
}

// Synthesize assembles queries in priority order: the original question, the
// stepback and expanded phrasings, question-plus-entity-name combinations for
// the first few expanded nodes, and relationship triples for the first few
// edges. The list is deduplicated case-insensitively (first occurrence wins)
// and truncated to cfg.MaxQueries. With an empty subgraph and a degraded
// analysis this degenerates to just the original question.
func (s *QuerySynthesizer) Synthesize(question string, analysis valueobjects.QuestionAnalysis, sub valueobjects.Subgraph, cfg *config.PipelineConfig) []string {
	queries := []string{question}

	if q := strings.TrimSpace(analysis.StepbackQuestion); q != "" {
		queries = append(queries, q)
	}
	if q := strings.TrimSpace(analysis.ExpandedQuestion); q != "" {
		queries = append(queries, q)
	}

	queries = append(queries, s.entityQueries(question, sub, cfg)...)
	queries = append(queries, s.relationshipQueries(sub, cfg)...)

	deduped := dedupeQueriesFold(queries)
	if len(deduped) > cfg.MaxQueries {
		deduped = deduped[:cfg.MaxQueries]
	}

	s.logger.Debug("queries synthesized", zap.Int("count", len(deduped)))
	return deduped
}

// entityQueries pairs the question with the names of the first expanded
// nodes: only the first EntityNameWindow expanded ids are considered, and at
// most MaxEntityQueries of the names found among them are used.
func (s *QuerySynthesizer) entityQueries(question string, sub valueobjects.Subgraph, cfg *config.PipelineConfig) []string {
	window := sub.ExpandedIDs
	if len(window) > cfg.EntityNameWindow {
		window = window[:cfg.EntityNameWindow]
	}

	var names []string
	for _, id := range window {
		if name, ok := sub.NodeName(id); ok && name != "" {
			names = append(names, name)
		}
	}
	if len(names) > cfg.MaxEntityQueries {
		names = names[:cfg.MaxEntityQueries]
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, question+" "+name)
	}
	return out
}

// relationshipQueries renders the first MaxRelationshipQueries edges as
// "source type target" phrases, skipping edges with an unresolvable endpoint.
func (s *QuerySynthesizer) relationshipQueries(sub valueobjects.Subgraph, cfg *config.PipelineConfig) []string {
	edges := sub.Edges
	if len(edges) > cfg.MaxRelationshipQueries {
		edges = edges[:cfg.MaxRelationshipQueries]
	}

	var out []string
	for _, edge := range edges {
		sourceName, ok := sub.NodeName(edge.SourceID)
		if !ok || sourceName == "" {
			continue
		}
		targetName, ok := sub.NodeName(edge.TargetID)
		if !ok || targetName == "" {
			continue
		}
		out = append(out, sourceName+" "+edge.Type+" "+targetName)
	}
	return out
}

func dedupeQueriesFold(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
