// Package cache memoizes embeddings of repeated texts, such as search queries.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"

	"textembedder/internal/port/outbound"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Service is an EmbeddingService backed by an LRU of previous results.
type Service struct {
	next  outbound.EmbeddingService
	cache *lru.Cache[[32]byte, []float32]
}

// Wrap returns a caching decorator holding up to size vectors.
func Wrap(next outbound.EmbeddingService, size int) (*Service, error) {
	c, err := lru.New[[32]byte, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &Service{next: next, cache: c}, nil
}

// Embed returns a cached vector when text was embedded before. Errors are not cached.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	key := sha256.Sum256([]byte(text))
	if vec, ok := s.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, vec)
	return vec, nil
}

// ModelName delegates.
func (s *Service) ModelName() string {
	return s.next.ModelName()
}

// Len reports the number of cached vectors.
func (s *Service) Len() int {
	return s.cache.Len()
}
