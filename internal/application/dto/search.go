package dto

import (
	"errors"
	"strings"
)

// Search-related constants.
const (
	// DefaultSearchSize is the default number of full-text hits.
	DefaultSearchSize = 10

	// DefaultSemanticK is the default number of nearest neighbours.
	DefaultSemanticK = 5

	// MaxSearchSize bounds both size and k.
	MaxSearchSize = 100
)

// SearchQuery is a full-text query over document text and metadata.
type SearchQuery struct {
	Query string `json:"q"`
	Size  int    `json:"size"`
}

// ApplyDefaults fills in the default size.
func (q *SearchQuery) ApplyDefaults() {
	if q.Size == 0 {
		q.Size = DefaultSearchSize
	}
}

// Validate checks the query text and size.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return errors.New("q is required")
	}
	if q.Size < 1 || q.Size > MaxSearchSize {
		return errors.New("size must be between 1 and 100")
	}
	return nil
}

// SemanticSearchQuery is a nearest-neighbour query; Query is embedded first.
type SemanticSearchQuery struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// ApplyDefaults fills in the default k.
func (q *SemanticSearchQuery) ApplyDefaults() {
	if q.K == 0 {
		q.K = DefaultSemanticK
	}
}

// Validate checks the query text and k.
func (q SemanticSearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return errors.New("query is required")
	}
	if q.K < 1 || q.K > MaxSearchSize {
		return errors.New("k must be between 1 and 100")
	}
	return nil
}

// SearchHitDTO is one document in a search response. The stored embedding is omitted.
type SearchHitDTO struct {
	ID         string         `json:"id"`
	Score      float64        `json:"score"`
	FileKey    string         `json:"file_key,omitempty"`
	PageNum    *int           `json:"page_num,omitempty"`
	Text       string         `json:"text"`
	TokenCount *int           `json:"token_count,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

// SearchResponse holds hits ordered by descending score.
type SearchResponse struct {
	Hits   []SearchHitDTO `json:"hits"`
	Total  int            `json:"total"`
	TookMs int64          `json:"took_ms"`
}
