package api

import (
	"net/http"

	"textembedder/internal/application/dto"
	"textembedder/internal/port/inbound"
)

// DocumentHandler handles manual document writes.
type DocumentHandler struct {
	documentService inbound.DocumentService
	errorHandler    ErrorHandler
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService inbound.DocumentService, errorHandler ErrorHandler) *DocumentHandler {
	if documentService == nil {
		panic("documentService cannot be nil")
	}
	if errorHandler == nil {
		panic("errorHandler cannot be nil")
	}
	return &DocumentHandler{documentService: documentService, errorHandler: errorHandler}
}

// IndexDocument handles POST /index.
func (h *DocumentHandler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var request dto.IndexDocumentRequest
	if err := decodeJSON(w, r, &request); err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}
	if err := request.Validate(); err != nil {
		h.errorHandler.HandleValidationError(w, r, NewValidationError("document", err.Error()))
		return
	}

	response, err := h.documentService.IndexDocument(r.Context(), request)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeResponse(w, r, h.errorHandler, http.StatusOK, response)
}

// DeleteDocument handles DELETE /doc/{id}.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.errorHandler.HandleValidationError(w, r, NewValidationError("id", "document id is required"))
		return
	}

	response, err := h.documentService.DeleteDocument(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeResponse(w, r, h.errorHandler, http.StatusOK, response)
}
