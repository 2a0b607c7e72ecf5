package openai

import (
	"context"
	"errors"
	"testing"

	"textembedder/internal/port/outbound"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLangchainEmbedder struct {
	mock.Mock
}

func (m *mockLangchainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	vectors, _ := args.Get(0).([][]float32)
	return vectors, args.Error(1)
}

func (m *mockLangchainEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	vector, _ := args.Get(0).([]float32)
	return vector, args.Error(1)
}

func TestEmbedder_Embed(t *testing.T) {
	inner := &mockLangchainEmbedder{}
	inner.On("EmbedDocuments", mock.Anything, []string{"hello"}).Return([][]float32{{0.1, 0.2}}, nil)

	e := NewWithEmbedder(inner, "text-embedding-3-small")
	vec, err := e.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, "text-embedding-3-small", e.ModelName())
	inner.AssertExpectations(t)
}

func TestEmbedder_Embed_Errors(t *testing.T) {
	tests := []struct {
		name        string
		vectors     [][]float32
		err         error
		wantUnexpct bool
	}{
		{name: "provider failure", err: errors.New("502 bad gateway")},
		{name: "no vectors", vectors: [][]float32{}, wantUnexpct: true},
		{name: "two vectors", vectors: [][]float32{{1}, {2}}, wantUnexpct: true},
		{name: "empty vector", vectors: [][]float32{{}}, wantUnexpct: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &mockLangchainEmbedder{}
			inner.On("EmbedDocuments", mock.Anything, mock.Anything).Return(tt.vectors, tt.err)

			_, err := NewWithEmbedder(inner, "m").Embed(context.Background(), "x")

			require.Error(t, err)
			var embErr *outbound.EmbeddingError
			require.True(t, errors.As(err, &embErr))
			assert.Equal(t, tt.wantUnexpct, errors.Is(err, outbound.ErrUnexpectedEmbeddingResponse))
		})
	}
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := New(Config{BaseURL: "http://localhost:11434/v1"})
	assert.Error(t, err)
}
