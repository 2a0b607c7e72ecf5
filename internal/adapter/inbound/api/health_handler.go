package api

import (
	"fmt"
	"net/http"
	"time"

	"textembedder/internal/port/inbound"
)

const nanosecondsToMilliseconds = 1e6

// HealthHandler handles HTTP requests for health check operations.
type HealthHandler struct {
	healthService inbound.HealthService
	errorHandler  ErrorHandler
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(healthService inbound.HealthService, errorHandler ErrorHandler) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
		errorHandler:  errorHandler,
	}
}

// GetHealth handles GET /health. It answers 200 even when degraded so load
// balancers keep the task; callers read status and checks from the body.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	response, err := h.healthService.GetHealth(r.Context())
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}

	w.Header().Set("X-Health-Check-Duration",
		fmt.Sprintf("%.2fms", float64(time.Since(start).Nanoseconds())/nanosecondsToMilliseconds))
	w.Header().Set("X-Health-Status", response.Status)

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Health check response encoding failed"))
	}
}
