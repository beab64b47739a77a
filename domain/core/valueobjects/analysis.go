package valueobjects

// QuestionAnalysis captures the discovery step's reading of one question:
// a generalized stepback phrasing, an expanded phrasing, the business entities
// mentioned, and the graph node names the question appears to touch.
type QuestionAnalysis struct {
	OriginalQuestion string   `json:"original_question"`
	StepbackQuestion string   `json:"stepback_question"`
	ExpandedQuestion string   `json:"expanded_question"`
	Entities         []string `json:"entities"`
	NodeNames        []string `json:"node_names"`
}

// DegradedAnalysis is the fallback when discovery fails: every question field
// carries the original question and the lists are empty, so the rest of the
// pipeline runs unchanged.
func DegradedAnalysis(question string) QuestionAnalysis {
	return QuestionAnalysis{
		OriginalQuestion: question,
		StepbackQuestion: question,
		ExpandedQuestion: question,
		Entities:         []string{},
		NodeNames:        []string{},
	}
}
