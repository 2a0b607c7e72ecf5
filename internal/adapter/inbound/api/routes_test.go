package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteRegistry_RegisterRoute(t *testing.T) {
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	tests := []struct {
		name    string
		pattern string
		wantErr string
	}{
		{name: "simple", pattern: "GET /health"},
		{name: "parameter", pattern: "DELETE /doc/{id}"},
		{name: "trailing wildcard", pattern: "GET /batches/{key...}"},
		{name: "empty", pattern: "", wantErr: "cannot be empty"},
		{name: "no method", pattern: "/health", wantErr: "must have format"},
		{name: "bad method", pattern: "FETCH /health", wantErr: "invalid HTTP method"},
		{name: "relative path", pattern: "GET health", wantErr: "must start with '/'"},
		{name: "double slash", pattern: "GET /a//b", wantErr: "double slashes"},
		{name: "bad parameter name", pattern: "GET /doc/{doc-id}", wantErr: "invalid parameter name"},
		{name: "partial segment", pattern: "GET /doc/x{id}", wantErr: "must be a whole"},
		{name: "wildcard not last", pattern: "GET /b/{key...}/x", wantErr: "must be the last segment"},
		{name: "duplicate parameter", pattern: "GET /{id}/{id}", wantErr: "duplicate parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRouteRegistry().RegisterRoute(tt.pattern, noop)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRouteRegistry_Conflicts(t *testing.T) {
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	registry := NewRouteRegistry()

	require.NoError(t, registry.RegisterRoute("DELETE /doc/{id}", noop))
	require.NoError(t, registry.RegisterRoute("GET /doc/{id}", noop), "different method does not conflict")

	err := registry.RegisterRoute("DELETE /doc/{id}", noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exact duplicate")

	err = registry.RegisterRoute("DELETE /doc/{doc_id}", noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different parameter names")

	assert.Equal(t, 2, registry.RouteCount())
	assert.Equal(t, []string{"DELETE /doc/{id}", "GET /doc/{id}"}, registry.GetPatterns())
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/doc/{param}", normalizePath("/doc/{id}"))
	assert.Equal(t, "/batches/{param...}", normalizePath("/batches/{key...}"))
	assert.Equal(t, "/health", normalizePath("/health"))
}
