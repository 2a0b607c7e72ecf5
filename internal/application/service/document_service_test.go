package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"textembedder/internal/application/dto"
	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/errors/domain"
	"textembedder/internal/port/outbound"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_IndexDocument_EmbedsText(t *testing.T) {
	vector := []float32{0.5, 0.5}
	embedder := new(mockEmbedder)
	embedder.On("Embed", mock.Anything, "hello world").Return(vector, nil)

	index := new(mockVectorIndex)
	index.On("Upsert", mock.Anything, mock.MatchedBy(func(doc entity.IndexedDocument) bool {
		return doc.ID == "doc-1" &&
			doc.Text == "hello world" &&
			doc.FileKey == "ocr/report.pdf" &&
			assert.ObjectsAreEqual(vector, doc.Embedding) &&
			doc.Metadata != nil
	})).Return(nil)

	svc := NewDocumentService(index, embedder)
	resp, err := svc.IndexDocument(context.Background(), dto.IndexDocumentRequest{
		DocID:    " doc-1 ",
		Document: dto.Document{Text: "hello world", FileKey: "ocr/report.pdf"},
	})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, dto.DocumentResult{
		ID:        "doc-1",
		Result:    dto.DocumentResultUpserted,
		Embedded:  true,
		Dimension: 2,
	}, resp.Result)
	embedder.AssertExpectations(t)
	index.AssertExpectations(t)
}

func TestDocumentService_IndexDocument_SuppliedEmbedding(t *testing.T) {
	embedder := new(mockEmbedder)
	index := new(mockVectorIndex)
	index.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	svc := NewDocumentService(index, embedder)
	resp, err := svc.IndexDocument(context.Background(), dto.IndexDocumentRequest{
		DocID:    "doc-2",
		Document: dto.Document{Embedding: []float32{1, 2, 3}},
	})
	require.NoError(t, err)

	assert.False(t, resp.Result.Embedded)
	assert.Equal(t, 3, resp.Result.Dimension)
	embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestDocumentService_IndexDocument_Errors(t *testing.T) {
	tests := []struct {
		name     string
		request  dto.IndexDocumentRequest
		setup    func(index *mockVectorIndex, embedder *mockEmbedder)
		expected error
	}{
		{
			name:     "missing doc id",
			request:  dto.IndexDocumentRequest{Document: dto.Document{Text: "x"}},
			setup:    func(*mockVectorIndex, *mockEmbedder) {},
			expected: domain.ErrInvalidDocument,
		},
		{
			name:     "neither text nor embedding",
			request:  dto.IndexDocumentRequest{DocID: "d"},
			setup:    func(*mockVectorIndex, *mockEmbedder) {},
			expected: domain.ErrInvalidDocument,
		},
		{
			name:    "embedding failure",
			request: dto.IndexDocumentRequest{DocID: "d", Document: dto.Document{Text: "x"}},
			setup: func(_ *mockVectorIndex, embedder *mockEmbedder) {
				embedder.On("Embed", mock.Anything, "x").Return(nil, errors.New("quota"))
			},
			expected: domain.ErrEmbeddingFailed,
		},
		{
			name:    "dimension mismatch",
			request: dto.IndexDocumentRequest{DocID: "d", Document: dto.Document{Embedding: []float32{1}}},
			setup: func(index *mockVectorIndex, _ *mockEmbedder) {
				index.On("Upsert", mock.Anything, mock.Anything).
					Return(fmt.Errorf("%w: index documents expects 3, got 1", outbound.ErrDimensionMismatch))
			},
			expected: outbound.ErrDimensionMismatch,
		},
		{
			name:    "index missing",
			request: dto.IndexDocumentRequest{DocID: "d", Document: dto.Document{Embedding: []float32{1}}},
			setup: func(index *mockVectorIndex, _ *mockEmbedder) {
				index.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("undefined table"))
				index.On("Exists", mock.Anything).Return(false, nil)
			},
			expected: domain.ErrIndexMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := new(mockVectorIndex)
			embedder := new(mockEmbedder)
			tt.setup(index, embedder)

			_, err := NewDocumentService(index, embedder).IndexDocument(context.Background(), tt.request)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestDocumentService_DeleteDocument(t *testing.T) {
	index := new(mockVectorIndex)
	index.On("Delete", mock.Anything, "doc-1").Return(nil)
	svc := NewDocumentService(index, new(mockEmbedder))

	resp, err := svc.DeleteDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, dto.DocumentResult{ID: "doc-1", Result: dto.DocumentResultDeleted}, resp.Result)
	assert.True(t, resp.OK)

	_, err = svc.DeleteDocument(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	index.AssertNumberOfCalls(t, "Delete", 1)
}
