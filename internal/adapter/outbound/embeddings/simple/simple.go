package simple

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// DefaultDimensions matches the default vector width of the hosted providers.
const DefaultDimensions = 768

// ModelName is reported for vectors produced by Generator.
const ModelName = "simple-deterministic"

// Generator produces deterministic pseudo-embeddings seeded by the SHA-256 of
// the input text. It makes no network calls and is meant for local runs and tests.
type Generator struct {
	dimensions int
}

// New creates a generator emitting vectors of the given width (DefaultDimensions when <= 0).
func New(dimensions int) *Generator {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Generator{dimensions: dimensions}
}

// Embed returns an L2-normalized vector derived from text.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(text))
	x := binary.LittleEndian.Uint64(sum[:8])
	if x == 0 {
		x = 0x9e3779b97f4a7c15
	}

	raw := make([]float64, g.dimensions)
	var norm float64
	for i := range raw {
		// xorshift64*
		x ^= x >> 12
		x ^= x << 25
		x ^= x >> 27
		x *= 0x2545F4914F6CDD1D

		f := float64(x>>11) / float64(1<<53)
		raw[i] = 2.0*f - 1.0
		norm += raw[i] * raw[i]
	}

	norm = math.Sqrt(norm)
	out := make([]float32, g.dimensions)
	for i, v := range raw {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out, nil
}

// ModelName implements outbound.EmbeddingService.
func (g *Generator) ModelName() string {
	return ModelName
}
