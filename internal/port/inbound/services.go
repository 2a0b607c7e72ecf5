// Package inbound defines the inbound ports (interfaces) for the application layer.
// These ports represent the entry points into the application's core business logic.
package inbound

import (
	"context"

	"textembedder/internal/application/dto"
)

// HealthService defines the inbound port for health check operations.
type HealthService interface {
	GetHealth(ctx context.Context) (*dto.HealthResponse, error)
}

// SearchService runs full-text and nearest-neighbour queries against the index.
type SearchService interface {
	Search(ctx context.Context, query dto.SearchQuery) (*dto.SearchResponse, error)
	SemanticSearch(ctx context.Context, query dto.SemanticSearchQuery) (*dto.SearchResponse, error)
}

// DocumentService writes and removes single documents outside the batch pipeline.
type DocumentService interface {
	IndexDocument(ctx context.Context, request dto.IndexDocumentRequest) (*dto.DocumentResponse, error)
	DeleteDocument(ctx context.Context, id string) (*dto.DocumentResponse, error)
}

// BatchStatusService reads back batch status records.
type BatchStatusService interface {
	GetBatchStatus(ctx context.Context, batchKey string) (*dto.BatchStatusResponse, error)
}
