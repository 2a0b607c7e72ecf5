package dto

import "time"

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
}

// ErrorCode represents standard error codes.
type ErrorCode string

const (
	// ErrorCodeInvalidRequest indicates that the request contains invalid parameters or data.
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrorCodeInvalidDocument indicates a document that cannot be indexed as given.
	ErrorCodeInvalidDocument ErrorCode = "INVALID_DOCUMENT"
	// ErrorCodeBatchNotFound indicates that no status was ever written for the batch key.
	ErrorCodeBatchNotFound ErrorCode = "BATCH_NOT_FOUND"
	// ErrorCodeEmbeddingFailed indicates that the embedding model rejected or failed the request.
	ErrorCodeEmbeddingFailed ErrorCode = "EMBEDDING_FAILED"
	// ErrorCodeDimensionMismatch indicates a supplied vector whose length differs from the index.
	ErrorCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"
	// ErrorCodeIndexMissing indicates that the worker has not created the index yet.
	ErrorCodeIndexMissing ErrorCode = "INDEX_MISSING"
	// ErrorCodeInternalError indicates an unexpected internal server error occurred.
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// NewErrorResponse creates a new error response.
func NewErrorResponse(code ErrorCode, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Error:     string(code),
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// ValidationError represents a validation error with field details.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ValidationErrorDetails represents multiple validation errors.
type ValidationErrorDetails struct {
	Errors []ValidationError `json:"errors"`
}
