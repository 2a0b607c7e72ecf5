// Package testutil provides inbound service doubles and request helpers for API tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"textembedder/internal/application/dto"
	"textembedder/internal/port/inbound"
)

// Compile-time interface compliance checks.
var (
	_ inbound.HealthService      = (*MockHealthService)(nil)
	_ inbound.SearchService      = (*MockSearchService)(nil)
	_ inbound.DocumentService    = (*MockDocumentService)(nil)
	_ inbound.BatchStatusService = (*MockBatchStatusService)(nil)
)

var errNotConfigured = errors.New("mock not configured")

// MockHealthService implements inbound.HealthService for testing.
type MockHealthService struct {
	mu            sync.Mutex
	GetHealthFunc func(ctx context.Context) (*dto.HealthResponse, error)
	Calls         int
}

// NewMockHealthService creates a new mock health service.
func NewMockHealthService() *MockHealthService {
	return &MockHealthService{}
}

// ExpectGetHealth makes GetHealth return response and err.
func (m *MockHealthService) ExpectGetHealth(response *dto.HealthResponse, err error) {
	m.GetHealthFunc = func(context.Context) (*dto.HealthResponse, error) { return response, err }
}

func (m *MockHealthService) GetHealth(ctx context.Context) (*dto.HealthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.GetHealthFunc != nil {
		return m.GetHealthFunc(ctx)
	}
	return nil, errNotConfigured
}

// MockSearchService implements inbound.SearchService for testing.
type MockSearchService struct {
	mu                 sync.Mutex
	SearchFunc         func(ctx context.Context, query dto.SearchQuery) (*dto.SearchResponse, error)
	SemanticSearchFunc func(ctx context.Context, query dto.SemanticSearchQuery) (*dto.SearchResponse, error)

	SearchCalls         []dto.SearchQuery
	SemanticSearchCalls []dto.SemanticSearchQuery
}

// NewMockSearchService creates a new mock search service.
func NewMockSearchService() *MockSearchService {
	return &MockSearchService{}
}

func (m *MockSearchService) Search(ctx context.Context, query dto.SearchQuery) (*dto.SearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls = append(m.SearchCalls, query)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, errNotConfigured
}

func (m *MockSearchService) SemanticSearch(ctx context.Context, query dto.SemanticSearchQuery) (*dto.SearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SemanticSearchCalls = append(m.SemanticSearchCalls, query)
	if m.SemanticSearchFunc != nil {
		return m.SemanticSearchFunc(ctx, query)
	}
	return nil, errNotConfigured
}

// MockDocumentService implements inbound.DocumentService for testing.
type MockDocumentService struct {
	mu                 sync.Mutex
	IndexDocumentFunc  func(ctx context.Context, request dto.IndexDocumentRequest) (*dto.DocumentResponse, error)
	DeleteDocumentFunc func(ctx context.Context, id string) (*dto.DocumentResponse, error)

	IndexDocumentCalls  []dto.IndexDocumentRequest
	DeleteDocumentCalls []string
}

// NewMockDocumentService creates a new mock document service.
func NewMockDocumentService() *MockDocumentService {
	return &MockDocumentService{}
}

func (m *MockDocumentService) IndexDocument(ctx context.Context, request dto.IndexDocumentRequest) (*dto.DocumentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IndexDocumentCalls = append(m.IndexDocumentCalls, request)
	if m.IndexDocumentFunc != nil {
		return m.IndexDocumentFunc(ctx, request)
	}
	return nil, errNotConfigured
}

func (m *MockDocumentService) DeleteDocument(ctx context.Context, id string) (*dto.DocumentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteDocumentCalls = append(m.DeleteDocumentCalls, id)
	if m.DeleteDocumentFunc != nil {
		return m.DeleteDocumentFunc(ctx, id)
	}
	return nil, errNotConfigured
}

// MockBatchStatusService implements inbound.BatchStatusService for testing.
type MockBatchStatusService struct {
	mu                 sync.Mutex
	GetBatchStatusFunc func(ctx context.Context, batchKey string) (*dto.BatchStatusResponse, error)
	Calls              []string
}

// NewMockBatchStatusService creates a new mock batch status service.
func NewMockBatchStatusService() *MockBatchStatusService {
	return &MockBatchStatusService{}
}

func (m *MockBatchStatusService) GetBatchStatus(ctx context.Context, batchKey string) (*dto.BatchStatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, batchKey)
	if m.GetBatchStatusFunc != nil {
		return m.GetBatchStatusFunc(ctx, batchKey)
	}
	return nil, errNotConfigured
}
