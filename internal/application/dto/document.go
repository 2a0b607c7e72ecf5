package dto

import (
	"errors"
	"strings"
	"time"
)

// Document is the body of a manual index request.
type Document struct {
	Text       string         `json:"text"`
	FileKey    string         `json:"file_key,omitempty"`
	PageNum    *int           `json:"page_num,omitempty"`
	TokenCount *int           `json:"token_count,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Embedding  []float32      `json:"embedding,omitempty"`
}

// IndexDocumentRequest upserts Document under DocID.
type IndexDocumentRequest struct {
	DocID    string   `json:"doc_id"`
	Document Document `json:"document"`
}

// Validate checks that the request names a document and carries text or a vector.
func (r IndexDocumentRequest) Validate() error {
	if strings.TrimSpace(r.DocID) == "" {
		return errors.New("doc_id is required")
	}
	if r.Document.Text == "" && len(r.Document.Embedding) == 0 {
		return errors.New("document.text or document.embedding is required")
	}
	return nil
}

// DocumentResult describes a write to the index.
type DocumentResult struct {
	ID        string `json:"id"`
	Result    string `json:"result"`
	Embedded  bool   `json:"embedded,omitempty"`
	Dimension int    `json:"dimension,omitempty"`
}

// Document write outcomes.
const (
	DocumentResultUpserted = "upserted"
	DocumentResultDeleted  = "deleted"
)

// DocumentResponse wraps a DocumentResult.
type DocumentResponse struct {
	OK     bool           `json:"ok"`
	Result DocumentResult `json:"result"`
}

// BatchStatusResponse is the stored status record of one batch.
type BatchStatusResponse struct {
	BatchKey     string    `json:"batch_key"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
	Terminal     bool      `json:"terminal"`
}
