package api

import (
	"net/http"

	"textembedder/internal/port/inbound"
)

// BatchHandler exposes stored batch status records.
type BatchHandler struct {
	batchService inbound.BatchStatusService
	errorHandler ErrorHandler
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchService inbound.BatchStatusService, errorHandler ErrorHandler) *BatchHandler {
	if batchService == nil {
		panic("batchService cannot be nil")
	}
	if errorHandler == nil {
		panic("errorHandler cannot be nil")
	}
	return &BatchHandler{batchService: batchService, errorHandler: errorHandler}
}

// GetBatchStatus handles GET /batches/{key...}. Object keys contain slashes,
// so the key is the whole remaining path.
func (h *BatchHandler) GetBatchStatus(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		h.errorHandler.HandleValidationError(w, r, NewValidationError("key", "batch key is required"))
		return
	}

	response, err := h.batchService.GetBatchStatus(r.Context(), key)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeResponse(w, r, h.errorHandler, http.StatusOK, response)
}
