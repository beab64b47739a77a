package llm

// Wire types for the Responses API. Only the fields this client touches are
// modeled.

type responseRequest struct {
	Model      string            `json:"model"`
	Input      []inputMessage    `json:"input"`
	Tools      []toolSpec        `json:"tools,omitempty"`
	Background bool              `json:"background,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolSpec struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

type apiResponse struct {
	ID         string       `json:"id"`
	Status     string       `json:"status"`
	OutputText string       `json:"output_text,omitempty"`
	Output     []outputItem `json:"output"`
	Error      *apiError    `json:"error,omitempty"`
}

type outputItem struct {
	Type    string        `json:"type"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type        string          `json:"type"`
	Text        string          `json:"text"`
	Annotations []apiAnnotation `json:"annotations"`
}

type apiAnnotation struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	FileID   string `json:"file_id"`
	Title    string `json:"title"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type apiErrorEnvelope struct {
	Error *apiError `json:"error"`
}
