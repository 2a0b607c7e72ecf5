package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"textembedder/internal/application/common/logging"
	"textembedder/internal/application/common/slogger"

	"github.com/google/uuid"
)

// CorrelationIDHeader carries the request's correlation id in and out.
const CorrelationIDHeader = "X-Correlation-ID"

// NewLoggingMiddleware stamps every request with a correlation id, which all
// log lines written while serving it share, and logs one line per request.
func NewLoggingMiddleware() MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(CorrelationIDHeader)
			if correlationID == "" {
				correlationID = uuid.New().String()
				r.Header.Set(CorrelationIDHeader, correlationID)
			}
			r = r.WithContext(logging.WithCorrelationID(r.Context(), correlationID))
			w.Header().Set(CorrelationIDHeader, correlationID)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			fields := slogger.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   ClientIP(r),
			}
			if r.URL.RawQuery != "" {
				fields["query"] = r.URL.RawQuery
			}
			if wrapped.statusCode >= http.StatusInternalServerError {
				slogger.Warn(r.Context(), "HTTP request failed", fields)
				return
			}
			slogger.Info(r.Context(), "HTTP request completed", fields)
		})
	}
}

// NewRecoveryMiddleware turns a handler panic into a 500 response.
func NewRecoveryMiddleware() MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slogger.Error(r.Context(), "Panic recovered in HTTP handler", slogger.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
						"panic":  rec,
					})
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"INTERNAL_ERROR","message":"An internal error occurred"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NewCORSMiddleware adds CORS headers and answers preflight requests.
func NewCORSMiddleware() MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+CorrelationIDHeader)

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ClientIP returns the first valid X-Forwarded-For address, then X-Real-IP,
// then the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, ip := range strings.Split(xff, ",") {
			ip = strings.TrimSpace(ip)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
