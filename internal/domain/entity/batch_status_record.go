package entity

import (
	"time"

	"textembedder/internal/domain/valueobject"
)

// BatchStatusRecord is the single status item kept per batch key.
type BatchStatusRecord struct {
	BatchKey     string                  `json:"batch_key"`
	Status       valueobject.BatchStatus `json:"status"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// NewBatchStatusRecord stamps a status write with the current time.
func NewBatchStatusRecord(batchKey string, status valueobject.BatchStatus, errorMessage string) BatchStatusRecord {
	return BatchStatusRecord{
		BatchKey:     batchKey,
		Status:       status,
		ErrorMessage: errorMessage,
		UpdatedAt:    time.Now().UTC(),
	}
}
