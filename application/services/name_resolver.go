package services

import (
	"strings"

	"go.uber.org/zap"

	"ekg-backend/domain/core/aggregates"
)

// NameResolver maps candidate entity names from question analysis onto node
// identifiers in a knowledge graph.
type NameResolver struct {
	logger *zap.Logger
}

// NewNameResolver creates a name resolver.
func NewNameResolver(logger *zap.Logger) *NameResolver {
	return &NameResolver{logger: logger}
}

// Resolve maps candidate names to node ids. An exact hit in the name index
// takes every id mapped to that name. Otherwise the node table is scanned and
// the first node whose normalized name contains, or is contained by, the
// candidate wins; scan order follows map iteration, so near-miss candidates
// resolve permissively rather than deterministically. Unmatched candidates are
// logged, never an error. The result is deduplicated.
func (r *NameResolver) Resolve(candidates []string, graph *aggregates.KnowledgeGraph) []string {
	ids := make([]string, 0, len(candidates))
	var unmatched []string

	for _, candidate := range candidates {
		normalized := aggregates.NormalizeName(candidate)
		if normalized == "" {
			continue
		}

		if matches, ok := graph.LookupName(normalized); ok && len(matches) > 0 {
			ids = append(ids, matches...)
			continue
		}

		if id, ok := scanByName(normalized, graph); ok {
			ids = append(ids, id)
			continue
		}

		unmatched = append(unmatched, candidate)
	}

	if len(unmatched) > 0 {
		r.logger.Warn("candidate names not found in graph",
			zap.Int("count", len(unmatched)),
			zap.Strings("sample", sampleStrings(unmatched, 5)),
		)
	}

	return dedupeStrings(ids)
}

func scanByName(normalized string, graph *aggregates.KnowledgeGraph) (string, bool) {
	for id, node := range graph.Nodes() {
		name := aggregates.NormalizeName(node.Name())
		if name == "" {
			continue
		}
		if name == normalized || strings.Contains(name, normalized) || strings.Contains(normalized, name) {
			return id, true
		}
	}
	return "", false
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func sampleStrings(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
