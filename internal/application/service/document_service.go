package service

import (
	"context"
	"fmt"
	"strings"

	"textembedder/internal/application/common"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/application/dto"
	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/errors/domain"
	"textembedder/internal/port/outbound"
)

// DocumentService upserts and deletes single documents.
type DocumentService struct {
	index    outbound.VectorIndex
	embedder outbound.EmbeddingService
}

// NewDocumentService creates a new DocumentService instance.
func NewDocumentService(index outbound.VectorIndex, embedder outbound.EmbeddingService) *DocumentService {
	if index == nil {
		panic("index cannot be nil")
	}
	if embedder == nil {
		panic("embedder cannot be nil")
	}
	return &DocumentService{index: index, embedder: embedder}
}

// IndexDocument writes request.Document under request.DocID, replacing any
// existing document. The text is embedded unless a vector is supplied.
func (s *DocumentService) IndexDocument(ctx context.Context, request dto.IndexDocumentRequest) (*dto.DocumentResponse, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}

	body := request.Document
	doc := entity.IndexedDocument{
		ID:         strings.TrimSpace(request.DocID),
		FileKey:    body.FileKey,
		PageNum:    body.PageNum,
		Text:       body.Text,
		TokenCount: body.TokenCount,
		Metadata:   body.Metadata,
		Embedding:  body.Embedding,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}

	embedded := false
	if len(doc.Embedding) == 0 {
		vector, err := s.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return nil, common.WrapServiceError(common.OpEmbedDocument+" "+doc.ID, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err))
		}
		doc.Embedding = vector
		embedded = true
	}

	if err := s.index.Upsert(ctx, doc); err != nil {
		return nil, indexError(ctx, s.index, common.OpUpsertDocument+" "+doc.ID, err)
	}

	slogger.Info(ctx, "Document indexed", slogger.Fields{
		"doc_id":    doc.ID,
		"embedded":  embedded,
		"dimension": len(doc.Embedding),
	})
	return &dto.DocumentResponse{
		OK: true,
		Result: dto.DocumentResult{
			ID:        doc.ID,
			Result:    dto.DocumentResultUpserted,
			Embedded:  embedded,
			Dimension: len(doc.Embedding),
		},
	}, nil
}

// DeleteDocument removes a document. Deleting an unknown id succeeds.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) (*dto.DocumentResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	if err := s.index.Delete(ctx, id); err != nil {
		return nil, indexError(ctx, s.index, common.OpDeleteDocument+" "+id, err)
	}

	slogger.Info(ctx, "Document deleted", slogger.Fields{"doc_id": id})
	return &dto.DocumentResponse{
		OK:     true,
		Result: dto.DocumentResult{ID: id, Result: dto.DocumentResultDeleted},
	}, nil
}
