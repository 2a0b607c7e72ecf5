package service

import (
	"context"

	"textembedder/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

type mockVectorIndex struct {
	mock.Mock
}

func (m *mockVectorIndex) Exists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockVectorIndex) EnsureIndex(ctx context.Context, dimension int) (bool, error) {
	args := m.Called(ctx, dimension)
	return args.Bool(0), args.Error(1)
}

func (m *mockVectorIndex) Upsert(ctx context.Context, doc entity.IndexedDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockVectorIndex) Search(ctx context.Context, query string, size int) ([]entity.SearchHit, error) {
	args := m.Called(ctx, query, size)
	hits, _ := args.Get(0).([]entity.SearchHit)
	return hits, args.Error(1)
}

func (m *mockVectorIndex) VectorSearch(ctx context.Context, vector []float32, k int) ([]entity.SearchHit, error) {
	args := m.Called(ctx, vector, k)
	hits, _ := args.Get(0).([]entity.SearchHit)
	return hits, args.Error(1)
}

func (m *mockVectorIndex) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockVectorIndex) Purge(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}

func (m *mockEmbedder) ModelName() string {
	return "mock-model"
}

type mockStatusStore struct {
	mock.Mock
}

func (m *mockStatusStore) SetStatus(ctx context.Context, record entity.BatchStatusRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockStatusStore) GetStatus(ctx context.Context, batchKey string) (entity.BatchStatusRecord, error) {
	args := m.Called(ctx, batchKey)
	return args.Get(0).(entity.BatchStatusRecord), args.Error(1)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
