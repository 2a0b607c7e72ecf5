package outbound

import (
	"context"
	"errors"

	"textembedder/internal/domain/entity"
)

// ErrBatchStatusNotFound is returned by GetStatus when nothing was written for a key.
var ErrBatchStatusNotFound = errors.New("batch status not found")

// BatchStatusStore records the processing state of batches.
type BatchStatusStore interface {
	// SetStatus unconditionally overwrites the record for record.BatchKey.
	SetStatus(ctx context.Context, record entity.BatchStatusRecord) error

	// GetStatus returns the current record for batchKey, or an error wrapping
	// ErrBatchStatusNotFound.
	GetStatus(ctx context.Context, batchKey string) (entity.BatchStatusRecord, error)
}
