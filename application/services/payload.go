package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"ekg-backend/domain/core/valueobjects"
)

// SentinelAnswer is what the model returns when the corpus has nothing to
// offer. An answer equal to it never gets a Sources section.
const SentinelAnswer = "not enough information available"

// AnswerPayload is the structured document the generation model is asked to
// return. Citations stay loosely typed until normalization.
type AnswerPayload struct {
	StepbackIntent   string        `json:"stepback_intent"`
	ExpandedQuestion string        `json:"expanded_question"`
	BusinessEntities []string      `json:"business_entities"`
	Citations        []interface{} `json:"citations"`
	Answer           string        `json:"answer"`
}

// analysisPayload is the structured document the discovery model returns.
type analysisPayload struct {
	OriginalQuestion string   `json:"original_question"`
	StepbackQuestion string   `json:"stepback_question"`
	ExpandedQuestion string   `json:"expanded_question"`
	Entities         []string `json:"entities"`
	NodeNames        []string `json:"node_names"`
}

var controlCharsRe = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// cleanModelText strips markdown code fences from model output.
func cleanModelText(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		// Drop the opening fence line, whatever language tag it carries.
		if idx := strings.Index(t, "\n"); idx >= 0 {
			t = t[idx+1:]
		} else {
			t = strings.TrimPrefix(t, "```")
		}
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

// decodeModelJSON unmarshals model output into v, first as-is, then after
// removing the control characters models sometimes leave in string literals.
func decodeModelJSON(text string, v interface{}) error {
	cleaned := cleanModelText(text)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(controlCharsRe.ReplaceAllString(cleaned, "")), v)
}

// ParseAnswerPayload decodes the generation model's JSON document. ok is
// false when the text is not parseable JSON; callers then fall back to the
// raw text as the answer.
func ParseAnswerPayload(text string) (*AnswerPayload, bool) {
	var payload AnswerPayload
	if err := decodeModelJSON(text, &payload); err != nil {
		return nil, false
	}
	return &payload, true
}

// parseAnalysisPayload decodes the discovery model's JSON document into a
// QuestionAnalysis. ok is false when the text is not parseable.
func parseAnalysisPayload(text, question string) (valueobjects.QuestionAnalysis, bool) {
	var payload analysisPayload
	if err := decodeModelJSON(text, &payload); err != nil {
		return valueobjects.QuestionAnalysis{}, false
	}

	analysis := valueobjects.QuestionAnalysis{
		OriginalQuestion: payload.OriginalQuestion,
		StepbackQuestion: payload.StepbackQuestion,
		ExpandedQuestion: payload.ExpandedQuestion,
		Entities:         payload.Entities,
		NodeNames:        payload.NodeNames,
	}
	if analysis.OriginalQuestion == "" {
		analysis.OriginalQuestion = question
	}
	if analysis.Entities == nil {
		analysis.Entities = []string{}
	}
	if analysis.NodeNames == nil {
		analysis.NodeNames = []string{}
	}
	return analysis, true
}

// sourcesHeadingRe matches an existing Sources section heading, as a markdown
// heading or a bare "Sources:" line, including the "Sources by file" variant.
var sourcesHeadingRe = regexp.MustCompile(`(?im)^\s*(#{1,6}\s+sources(?:\s+by\s+file)?\b|sources(?:\s+by\s+file)?\s*:?)\s*$`)

// HasSourcesSection reports whether the answer already carries a Sources
// heading.
func HasSourcesSection(answer string) bool {
	return sourcesHeadingRe.MatchString(answer)
}

// AppendSourcesSection appends a "### Sources" block listing the citations.
// The answer is returned unchanged when there are no citations, when it is
// empty, when it is the no-information sentinel, or when it already has a
// Sources heading.
func AppendSourcesSection(answer string, citations []valueobjects.Citation) string {
	if len(citations) == 0 {
		return answer
	}
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" || strings.EqualFold(trimmed, SentinelAnswer) {
		return answer
	}
	if HasSourcesSection(answer) {
		return answer
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(answer, "\n"))
	b.WriteString("\n\n### Sources\n")
	for _, c := range citations {
		b.WriteString("[" + c.ID + "] " + c.Source + "\n")
	}
	return b.String()
}
