package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"textembedder/internal/application/common"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/application/dto"
	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/errors/domain"
	"textembedder/internal/port/outbound"
)

// SearchService handles full-text and semantic queries over the vector index.
type SearchService struct {
	index    outbound.VectorIndex
	embedder outbound.EmbeddingService
}

// NewSearchService creates a new SearchService instance. embedder is used for
// query vectors only and is normally wrapped in the LRU cache.
func NewSearchService(index outbound.VectorIndex, embedder outbound.EmbeddingService) *SearchService {
	if index == nil {
		panic("index cannot be nil")
	}
	if embedder == nil {
		panic("embedder cannot be nil")
	}
	return &SearchService{index: index, embedder: embedder}
}

// Search runs a full-text query over document text and metadata.
func (s *SearchService) Search(ctx context.Context, query dto.SearchQuery) (*dto.SearchResponse, error) {
	start := time.Now()

	query.ApplyDefaults()
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	hits, err := s.index.Search(ctx, query.Query, query.Size)
	if err != nil {
		return nil, indexError(ctx, s.index, common.OpFullTextSearch, err)
	}

	slogger.Debug(ctx, "Full-text search completed", slogger.Fields{
		"query": query.Query,
		"size":  query.Size,
		"hits":  len(hits),
	})
	return newSearchResponse(hits, start), nil
}

// SemanticSearch embeds the query text and returns its k nearest documents.
func (s *SearchService) SemanticSearch(ctx context.Context, query dto.SemanticSearchQuery) (*dto.SearchResponse, error) {
	start := time.Now()

	query.ApplyDefaults()
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	vector, err := s.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, common.WrapServiceError(common.OpEmbedQuery, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err))
	}

	hits, err := s.index.VectorSearch(ctx, vector, query.K)
	if err != nil {
		return nil, indexError(ctx, s.index, common.OpVectorSearch, err)
	}

	slogger.Debug(ctx, "Semantic search completed", slogger.Fields{
		"k":         query.K,
		"dimension": len(vector),
		"hits":      len(hits),
		"model":     s.embedder.ModelName(),
	})
	return newSearchResponse(hits, start), nil
}

func newSearchResponse(hits []entity.SearchHit, start time.Time) *dto.SearchResponse {
	out := make([]dto.SearchHitDTO, 0, len(hits))
	for _, hit := range hits {
		doc := hit.Document
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		out = append(out, dto.SearchHitDTO{
			ID:         doc.ID,
			Score:      hit.Score,
			FileKey:    doc.FileKey,
			PageNum:    doc.PageNum,
			Text:       doc.Text,
			TokenCount: doc.TokenCount,
			Metadata:   metadata,
		})
	}
	return &dto.SearchResponse{
		Hits:   out,
		Total:  len(out),
		TookMs: time.Since(start).Milliseconds(),
	}
}

// indexError reports a missing index as domain.ErrIndexMissing, since the API
// may start before any worker has bootstrapped the index.
func indexError(ctx context.Context, index outbound.VectorIndex, operation string, err error) error {
	if errors.Is(err, outbound.ErrDimensionMismatch) {
		return common.WrapServiceError(operation, err)
	}
	if exists, existsErr := index.Exists(ctx); existsErr == nil && !exists {
		return common.WrapServiceError(operation, domain.ErrIndexMissing)
	}
	return common.WrapServiceError(operation, err)
}
