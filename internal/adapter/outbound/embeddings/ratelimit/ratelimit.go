// Package ratelimit throttles calls to an embedding provider with a token bucket.
package ratelimit

import (
	"context"
	"fmt"

	"textembedder/internal/port/outbound"

	"golang.org/x/time/rate"
)

// Service wraps an EmbeddingService so that calls never exceed the configured rate.
type Service struct {
	next    outbound.EmbeddingService
	limiter *rate.Limiter
}

// Wrap returns next unchanged when requestsPerSecond is not positive.
func Wrap(next outbound.EmbeddingService, requestsPerSecond float64, burst int) outbound.EmbeddingService {
	if requestsPerSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Service{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Embed waits for a token and then delegates.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return s.next.Embed(ctx, text)
}

// ModelName delegates.
func (s *Service) ModelName() string {
	return s.next.ModelName()
}
