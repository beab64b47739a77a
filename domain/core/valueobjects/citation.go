package valueobjects

import (
	"fmt"
	"strconv"
	"strings"
)

// Citation links part of an answer to a source document.
type Citation struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// NormalizeCitations accepts the loosely-typed citation list a model returns,
// where each entry may be a bare string or an {id, source} object. Entries
// with an empty source are dropped, duplicates are collapsed on the lowercased
// source (first occurrence wins), and entries without an id get their
// one-based output position, counted after drops.
func NormalizeCitations(raw []interface{}) []Citation {
	out := make([]Citation, 0, len(raw))
	seen := make(map[string]bool)

	for _, entry := range raw {
		var source, id string
		switch v := entry.(type) {
		case map[string]interface{}:
			source = strings.TrimSpace(stringify(v["source"]))
			id = stringify(v["id"])
			if id == "" {
				id = strconv.Itoa(len(out) + 1)
			}
		default:
			source = strings.TrimSpace(stringify(entry))
			id = strconv.Itoa(len(out) + 1)
		}

		if source == "" {
			continue
		}
		key := strings.ToLower(source)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Citation{ID: id, Source: source})
	}

	return out
}

// stringify renders a decoded JSON scalar the way a human wrote it: whole
// numbers without a decimal point, nil as empty.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
