package outbound

import (
	"context"
	"io"
)

// BatchSource fetches batch files from object storage.
type BatchSource interface {
	// Open returns the full content stream of the object stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
