package entity

// IndexedDocument is a unit together with its embedding, as stored in the vector index.
type IndexedDocument struct {
	ID         string         `json:"id"`
	FileKey    string         `json:"file_key,omitempty"`
	PageNum    *int           `json:"page_num,omitempty"`
	Text       string         `json:"text"`
	TokenCount *int           `json:"token_count,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	Embedding  []float32      `json:"embedding,omitempty"`
}

// SearchHit is a document returned from a full-text or vector query.
type SearchHit struct {
	Document IndexedDocument `json:"document"`
	Score    float64         `json:"score"`
}
