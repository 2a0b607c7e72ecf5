// Package api serves the search, document and batch status HTTP endpoints.
package api

import (
	"errors"
	"net/http"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/application/dto"
	"textembedder/internal/domain/errors/domain"
	"textembedder/internal/port/outbound"
)

// ErrorHandler defines methods for handling HTTP errors.
type ErrorHandler interface {
	HandleValidationError(w http.ResponseWriter, r *http.Request, err error)
	HandleServiceError(w http.ResponseWriter, r *http.Request, err error)
}

// ErrorHandlingConfig describes how one domain error is reported.
type ErrorHandlingConfig struct {
	LogMessage      string
	ErrorType       string
	HTTPStatus      int
	ErrorCode       dto.ErrorCode
	ResponseMessage string
	UseDetailedMsg  bool
}

type errorMapping struct {
	err    error
	config ErrorHandlingConfig
}

// DefaultErrorHandler implements ErrorHandler with standard HTTP error responses.
type DefaultErrorHandler struct {
	mappings []errorMapping
}

// NewDefaultErrorHandler creates a new DefaultErrorHandler with predefined error configurations.
// Mappings are checked in order.
func NewDefaultErrorHandler() ErrorHandler {
	return &DefaultErrorHandler{mappings: []errorMapping{
		{domain.ErrInvalidInput, ErrorHandlingConfig{
			LogMessage:     "Invalid request",
			ErrorType:      "validation",
			HTTPStatus:     http.StatusBadRequest,
			ErrorCode:      dto.ErrorCodeInvalidRequest,
			UseDetailedMsg: true,
		}},
		{domain.ErrInvalidDocument, ErrorHandlingConfig{
			LogMessage:     "Invalid document",
			ErrorType:      "invalid_document",
			HTTPStatus:     http.StatusBadRequest,
			ErrorCode:      dto.ErrorCodeInvalidDocument,
			UseDetailedMsg: true,
		}},
		{outbound.ErrDimensionMismatch, ErrorHandlingConfig{
			LogMessage:     "Embedding dimension mismatch",
			ErrorType:      "dimension_mismatch",
			HTTPStatus:     http.StatusUnprocessableEntity,
			ErrorCode:      dto.ErrorCodeDimensionMismatch,
			UseDetailedMsg: true,
		}},
		{domain.ErrBatchNotFound, ErrorHandlingConfig{
			LogMessage:      "Batch status not found",
			ErrorType:       "not_found",
			HTTPStatus:      http.StatusNotFound,
			ErrorCode:       dto.ErrorCodeBatchNotFound,
			ResponseMessage: "Batch status not found",
		}},
		{domain.ErrIndexMissing, ErrorHandlingConfig{
			LogMessage:      "Vector index missing",
			ErrorType:       "index_missing",
			HTTPStatus:      http.StatusServiceUnavailable,
			ErrorCode:       dto.ErrorCodeIndexMissing,
			ResponseMessage: "The vector index has not been created yet",
		}},
		{domain.ErrEmbeddingFailed, ErrorHandlingConfig{
			LogMessage:     "Embedding request failed",
			ErrorType:      "embedding",
			HTTPStatus:     http.StatusBadGateway,
			ErrorCode:      dto.ErrorCodeEmbeddingFailed,
			UseDetailedMsg: true,
		}},
	}}
}

func (h *DefaultErrorHandler) logError(r *http.Request, message, errorType string, err error) {
	slogger.Error(r.Context(), message, slogger.Fields{
		"error": err.Error(),
		"path":  r.URL.Path,
		"type":  errorType,
	})
}

func (h *DefaultErrorHandler) handleErrorWithConfig(w http.ResponseWriter, r *http.Request, err error, config ErrorHandlingConfig) {
	h.logError(r, config.LogMessage, config.ErrorType, err)

	message := config.ResponseMessage
	if config.UseDetailedMsg {
		message = err.Error()
	}
	h.writeErrorResponse(w, r, config.HTTPStatus, dto.NewErrorResponse(config.ErrorCode, message, nil))
}

// HandleValidationError handles validation errors by returning 400 Bad Request.
func (h *DefaultErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, "Validation error occurred", "validation", err)

	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		response := dto.NewErrorResponse(
			dto.ErrorCodeInvalidRequest,
			"Validation failed",
			dto.ValidationErrorDetails{Errors: []dto.ValidationError{validationErr.ToDTO()}},
		)
		h.writeErrorResponse(w, r, http.StatusBadRequest, response)
		return
	}

	h.writeErrorResponse(w, r, http.StatusBadRequest, dto.NewErrorResponse(dto.ErrorCodeInvalidRequest, err.Error(), nil))
}

// HandleServiceError maps service errors to HTTP status codes.
func (h *DefaultErrorHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range h.mappings {
		if errors.Is(err, m.err) {
			h.handleErrorWithConfig(w, r, err, m.config)
			return
		}
	}

	h.handleErrorWithConfig(w, r, err, ErrorHandlingConfig{
		LogMessage:      "Internal server error",
		ErrorType:       "internal",
		HTTPStatus:      http.StatusInternalServerError,
		ErrorCode:       dto.ErrorCodeInternalError,
		ResponseMessage: "An internal error occurred",
	})
}

func (h *DefaultErrorHandler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, response dto.ErrorResponse) {
	if correlationID := r.Header.Get(CorrelationIDHeader); correlationID != "" {
		w.Header().Set(CorrelationIDHeader, correlationID)
	}

	if err := WriteJSON(w, statusCode, response); err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal Server Error"))
	}
}
