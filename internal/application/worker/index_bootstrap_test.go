package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexBootstrap_CreatesIndexWithProbeDimension(t *testing.T) {
	embedder := newRecordingEmbedder(384)
	index := newMemoryIndex()

	dim, err := NewIndexBootstrap(embedder, index).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 384, dim)
	assert.Equal(t, []string{BootstrapProbeText}, embedder.embeddedTexts())
	assert.Equal(t, 384, index.dimension)
	assert.Equal(t, 1, index.created)
}

func TestIndexBootstrap_SecondRunDoesNotMutate(t *testing.T) {
	index := newMemoryIndex()
	b := NewIndexBootstrap(newRecordingEmbedder(8), index)

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	_, err = b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, index.ensured)
	assert.Equal(t, 1, index.created)
}

func TestIndexBootstrap_ExistingIndexIsTrusted(t *testing.T) {
	index := newMemoryIndex()
	index.dimension = 1536

	dim, err := NewIndexBootstrap(newRecordingEmbedder(768), index).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 768, dim)
	assert.Equal(t, 1536, index.dimension)
	assert.Zero(t, index.created)
}

// Scenario E: a failing probe aborts startup.
func TestIndexBootstrap_Failures(t *testing.T) {
	embedder := newRecordingEmbedder(4)
	embedder.failText[BootstrapProbeText] = errors.New("credentials expired")
	index := newMemoryIndex()

	_, err := NewIndexBootstrap(embedder, index).Run(context.Background())
	assert.ErrorContains(t, err, "embed probe: credentials expired")
	assert.Zero(t, index.ensured)

	_, err = NewIndexBootstrap(newRecordingEmbedder(0), newMemoryIndex()).Run(context.Background())
	assert.ErrorContains(t, err, "empty vector")

	broken := newMemoryIndex()
	broken.ensureErr = errors.New("permission denied to create extension")
	_, err = NewIndexBootstrap(newRecordingEmbedder(4), broken).Run(context.Background())
	assert.ErrorContains(t, err, "ensure index")
}
