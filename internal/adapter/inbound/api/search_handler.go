package api

import (
	"net/http"

	"textembedder/internal/application/dto"
	"textembedder/internal/port/inbound"
)

// SearchHandler handles HTTP requests for full-text and semantic search.
type SearchHandler struct {
	searchService inbound.SearchService
	errorHandler  ErrorHandler
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService inbound.SearchService, errorHandler ErrorHandler) *SearchHandler {
	if searchService == nil {
		panic("searchService cannot be nil")
	}
	if errorHandler == nil {
		panic("errorHandler cannot be nil")
	}
	return &SearchHandler{searchService: searchService, errorHandler: errorHandler}
}

// Search handles GET /search?q=&size=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	size, err := queryInt(r, "size")
	if err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	query := dto.SearchQuery{Query: r.URL.Query().Get("q"), Size: size}
	query.ApplyDefaults()
	if err := query.Validate(); err != nil {
		h.errorHandler.HandleValidationError(w, r, NewValidationError("q", err.Error()))
		return
	}

	response, err := h.searchService.Search(r.Context(), query)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeResponse(w, r, h.errorHandler, http.StatusOK, response)
}

// SemanticSearch handles POST /semantic-search?query=&k=.
func (h *SearchHandler) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	k, err := queryInt(r, "k")
	if err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	query := dto.SemanticSearchQuery{Query: r.URL.Query().Get("query"), K: k}
	query.ApplyDefaults()
	if err := query.Validate(); err != nil {
		h.errorHandler.HandleValidationError(w, r, NewValidationError("query", err.Error()))
		return
	}

	response, err := h.searchService.SemanticSearch(r.Context(), query)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeResponse(w, r, h.errorHandler, http.StatusOK, response)
}

func writeResponse(w http.ResponseWriter, r *http.Request, errorHandler ErrorHandler, status int, data interface{}) {
	if err := WriteJSON(w, status, data); err != nil {
		errorHandler.HandleServiceError(w, r, err)
	}
}
