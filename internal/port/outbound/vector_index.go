package outbound

import (
	"context"
	"errors"

	"textembedder/internal/domain/entity"
)

// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
var ErrDimensionMismatch = errors.New("embedding dimension does not match index")

// VectorIndex is the search index that embedded units are written to.
type VectorIndex interface {
	// Exists reports whether the index has been created.
	Exists(ctx context.Context) (bool, error)

	// EnsureIndex creates the index with a vector field of the given dimension
	// unless it already exists. An existing index is left untouched and its
	// dimension is not compared with dimension. It reports whether it created the index.
	EnsureIndex(ctx context.Context, dimension int) (bool, error)

	// Upsert writes doc under doc.ID, replacing any existing document.
	Upsert(ctx context.Context, doc entity.IndexedDocument) error

	// Search runs a full-text query over document text and metadata.
	Search(ctx context.Context, query string, size int) ([]entity.SearchHit, error)

	// VectorSearch returns the k nearest documents to vector.
	VectorSearch(ctx context.Context, vector []float32, k int) ([]entity.SearchHit, error)

	// Delete removes a document. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Purge removes every document and keeps the index.
	Purge(ctx context.Context) (int64, error)
}
