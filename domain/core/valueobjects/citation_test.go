package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCitationsObjectsAndStrings(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"id": "7", "source": " handbook.pdf "},
		"policies.docx",
		map[string]interface{}{"source": "ledger.xlsx"},
	}

	got := NormalizeCitations(raw)

	assert.Equal(t, []Citation{
		{ID: "7", Source: "handbook.pdf"},
		{ID: "2", Source: "policies.docx"},
		{ID: "3", Source: "ledger.xlsx"},
	}, got)
}

func TestNormalizeCitationsNumericID(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"id": float64(3), "source": "report.pdf"},
	}
	got := NormalizeCitations(raw)
	assert.Equal(t, []Citation{{ID: "3", Source: "report.pdf"}}, got)
}

func TestNormalizeCitationsDedupesCaseInsensitively(t *testing.T) {
	raw := []interface{}{"Doc.pdf", "doc.pdf", "DOC.PDF", "other.pdf"}
	got := NormalizeCitations(raw)

	assert.Equal(t, []Citation{
		{ID: "1", Source: "Doc.pdf"},
		{ID: "2", Source: "other.pdf"},
	}, got)
}

func TestNormalizeCitationsNumbersByOutputPosition(t *testing.T) {
	// Dropped entries must not skew the fallback ids of what survives.
	raw := []interface{}{"", "Doc.pdf", "   ", "Other.pdf"}
	got := NormalizeCitations(raw)

	assert.Equal(t, []Citation{
		{ID: "1", Source: "Doc.pdf"},
		{ID: "2", Source: "Other.pdf"},
	}, got)
}

func TestNormalizeCitationsDropsEmptySources(t *testing.T) {
	raw := []interface{}{"", "   ", map[string]interface{}{"id": "1"}, nil}
	assert.Empty(t, NormalizeCitations(raw))
}

func TestDegradedAnalysisEchoesQuestion(t *testing.T) {
	a := DegradedAnalysis("what is churn?")
	assert.Equal(t, "what is churn?", a.OriginalQuestion)
	assert.Equal(t, "what is churn?", a.StepbackQuestion)
	assert.Equal(t, "what is churn?", a.ExpandedQuestion)
	assert.Empty(t, a.Entities)
	assert.NotNil(t, a.Entities)
	assert.NotNil(t, a.NodeNames)
}
