package outbound

import (
	"context"
	"errors"
)

// EmbeddingService turns a single text into a vector.
type EmbeddingService interface {
	// Embed returns the embedding of text. Empty text is sent to the model as-is.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName identifies the model behind the service.
	ModelName() string
}

// ErrUnexpectedEmbeddingResponse marks a response that does not match the provider's schema.
var ErrUnexpectedEmbeddingResponse = errors.New("unexpected embedding response")

// Error types carried by EmbeddingError.
const (
	EmbeddingErrorAuth       = "auth"
	EmbeddingErrorQuota      = "quota"
	EmbeddingErrorValidation = "validation"
	EmbeddingErrorServer     = "server"
	EmbeddingErrorNetwork    = "network"
)

// EmbeddingError represents an error from the embedding service.
type EmbeddingError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
	Retryable  bool   `json:"retryable"`
	Cause      error  `json:"-"`
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	msg := "embedding service error (" + e.Type + "/" + e.Code + "): " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable.
func (e *EmbeddingError) IsRetryable() bool {
	return e.Retryable
}

// IsQuotaError returns whether the error is a quota/rate limit error.
func (e *EmbeddingError) IsQuotaError() bool {
	return e.Type == EmbeddingErrorQuota
}

// IsValidationError returns whether the error is a validation error.
func (e *EmbeddingError) IsValidationError() bool {
	return e.Type == EmbeddingErrorValidation
}

// NewUnexpectedResponseError wraps ErrUnexpectedEmbeddingResponse with detail.
func NewUnexpectedResponseError(message string, cause error) *EmbeddingError {
	if cause == nil {
		cause = ErrUnexpectedEmbeddingResponse
	} else {
		cause = errors.Join(ErrUnexpectedEmbeddingResponse, cause)
	}
	return &EmbeddingError{
		Code:    "unexpected_response",
		Message: message,
		Type:    EmbeddingErrorValidation,
		Cause:   cause,
	}
}
