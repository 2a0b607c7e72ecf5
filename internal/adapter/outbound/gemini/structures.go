package gemini

// EmbedContentRequest represents a request to the Gemini embedding API.
type EmbedContentRequest struct {
	Model                string  `json:"model"`
	Content              Content `json:"content"`
	TaskType             string  `json:"taskType,omitempty"`
	OutputDimensionality int     `json:"outputDimensionality,omitempty"`
}

// Content represents the content to be embedded.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part represents a part of the content.
type Part struct {
	Text string `json:"text"`
}

// EmbedContentResponse is the only response shape the client accepts.
type EmbedContentResponse struct {
	Embedding *ContentEmbedding `json:"embedding"`
}

// ContentEmbedding represents the embedding values.
type ContentEmbedding struct {
	Values []float64 `json:"values"`
}

// ErrorResponse represents an error response from the Gemini API.
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
