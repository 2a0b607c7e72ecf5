package worker

import (
	"context"
	"errors"
	"fmt"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/port/outbound"
)

// BootstrapProbeText is embedded once at startup to learn the vector dimension.
const BootstrapProbeText = "bootstrap test"

// IndexBootstrap makes sure the vector index exists before polling starts.
type IndexBootstrap struct {
	embedder outbound.EmbeddingService
	index    outbound.VectorIndex
}

// NewIndexBootstrap creates a bootstrap step.
func NewIndexBootstrap(embedder outbound.EmbeddingService, index outbound.VectorIndex) *IndexBootstrap {
	return &IndexBootstrap{embedder: embedder, index: index}
}

// Run embeds the probe text and ensures the index for its dimension. An
// existing index is left untouched and its dimension is not checked.
// Any error is fatal to the worker.
func (b *IndexBootstrap) Run(ctx context.Context) (int, error) {
	slogger.Info(ctx, "Bootstrapping vector index", slogger.Fields{"model": b.embedder.ModelName()})

	vector, err := b.embedder.Embed(ctx, BootstrapProbeText)
	if err != nil {
		return 0, fmt.Errorf("index bootstrap: embed probe: %w", err)
	}
	if len(vector) == 0 {
		return 0, errors.New("index bootstrap: embedding service returned an empty vector")
	}

	created, err := b.index.EnsureIndex(ctx, len(vector))
	if err != nil {
		return 0, fmt.Errorf("index bootstrap: ensure index: %w", err)
	}

	slogger.Info(ctx, "Index bootstrap complete", slogger.Fields{
		"dimension": len(vector),
		"created":   created,
	})
	return len(vector), nil
}
