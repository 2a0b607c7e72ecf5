// Package embeddings holds the pieces shared by the embedding provider adapters.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"textembedder/internal/port/outbound"
)

// maxErrorBody bounds how much of a failed response is kept on the error.
const maxErrorBody = 2048

// HTTPError converts a non-2xx response into an EmbeddingError. body is the
// raw response body and apiMessage an optional message parsed from it.
func HTTPError(statusCode int, header http.Header, body []byte, apiMessage string) *outbound.EmbeddingError {
	e := &outbound.EmbeddingError{
		StatusCode: statusCode,
		Body:       truncate(string(body), maxErrorBody),
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = "unauthorized"
		e.Type = outbound.EmbeddingErrorAuth
		e.Message = fmt.Sprintf("authentication failed (HTTP %d)", statusCode)
	case statusCode == http.StatusTooManyRequests:
		e.Code = "rate_limit_exceeded"
		e.Type = outbound.EmbeddingErrorQuota
		e.Retryable = true
		e.Message = fmt.Sprintf("rate limit exceeded (HTTP %d)", statusCode)
		if retryAfter := header.Get("Retry-After"); retryAfter != "" {
			e.Message += ", retry after " + retryAfter + "s"
		}
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		e.Code = "invalid_request"
		e.Type = outbound.EmbeddingErrorValidation
		e.Message = fmt.Sprintf("invalid request (HTTP %d)", statusCode)
	case statusCode >= http.StatusInternalServerError:
		e.Code = "server_error"
		e.Type = outbound.EmbeddingErrorServer
		e.Retryable = true
		e.Message = fmt.Sprintf("server error (HTTP %d)", statusCode)
	default:
		e.Code = "http_error"
		e.Type = outbound.EmbeddingErrorServer
		e.Message = fmt.Sprintf("unexpected status (HTTP %d)", statusCode)
	}

	if apiMessage != "" {
		e.Message += ": " + apiMessage
	}
	return e
}

// TransportError converts a failed round trip into an EmbeddingError.
func TransportError(err error) *outbound.EmbeddingError {
	e := &outbound.EmbeddingError{
		Code:    "network_error",
		Type:    outbound.EmbeddingErrorNetwork,
		Message: "request failed",
		Cause:   err,
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		e.Code = "request_canceled"
		e.Message = "request was canceled"
	case errors.Is(err, context.DeadlineExceeded):
		e.Code = "request_timeout"
		e.Message = "request timed out"
		e.Retryable = true
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Code = "request_timeout"
		e.Message = "request timed out"
		e.Retryable = true
	default:
		e.Retryable = true
	}
	return e
}

// ToFloat32 narrows a decoded JSON vector.
func ToFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
