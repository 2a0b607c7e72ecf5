// Package openai embeds text through any OpenAI-compatible /embeddings API using langchaingo.
package openai

import (
	"context"
	"errors"
	"fmt"

	"textembedder/internal/port/outbound"

	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// Config configures the OpenAI-compatible endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Embedder implements outbound.EmbeddingService over a langchaingo embedder.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
}

// New creates an embedder talking to config.BaseURL.
func New(config Config) (*Embedder, error) {
	if config.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	token := config.APIKey
	if token == "" {
		// Local OpenAI-compatible servers accept any token.
		token = "none"
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(token),
		lcopenai.WithEmbeddingModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(config.BaseURL))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return NewWithEmbedder(embedder, config.Model), nil
}

// NewWithEmbedder wraps an existing langchaingo embedder.
func NewWithEmbedder(embedder embeddings.Embedder, model string) *Embedder {
	return &Embedder{embedder: embedder, model: model}
}

// ModelName implements outbound.EmbeddingService.
func (e *Embedder) ModelName() string {
	return e.model
}

// Embed implements outbound.EmbeddingService. The provider must return
// exactly one non-empty vector for the one input.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, &outbound.EmbeddingError{
			Code:      "provider_error",
			Type:      outbound.EmbeddingErrorServer,
			Message:   "openai embedding request failed",
			Retryable: true,
			Cause:     err,
		}
	}
	if len(vectors) != 1 {
		return nil, outbound.NewUnexpectedResponseError(fmt.Sprintf("expected 1 embedding, got %d", len(vectors)), nil)
	}
	if len(vectors[0]) == 0 {
		return nil, outbound.NewUnexpectedResponseError("embedding is empty", nil)
	}
	return vectors[0], nil
}
