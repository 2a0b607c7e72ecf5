package api

import (
	"fmt"
	"net/http"
	"strings"
)

// RouteRegistry manages HTTP route registration using Go 1.22+ ServeMux patterns.
type RouteRegistry struct {
	routes   map[string]http.Handler
	patterns []string
	mux      *http.ServeMux
}

// Handlers groups the handlers served by RegisterAPIRoutes.
type Handlers struct {
	Health   *HealthHandler
	Search   *SearchHandler
	Document *DocumentHandler
	Batch    *BatchHandler
}

// NewRouteRegistry creates a new RouteRegistry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{
		routes:   make(map[string]http.Handler),
		patterns: make([]string, 0),
		mux:      http.NewServeMux(),
	}
}

// RegisterAPIRoutes registers all API routes with their handlers.
func (r *RouteRegistry) RegisterAPIRoutes(h Handlers) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /health", h.Health.GetHealth},
		{"GET /search", h.Search.Search},
		{"POST /semantic-search", h.Search.SemanticSearch},
		{"POST /index", h.Document.IndexDocument},
		{"DELETE /doc/{id}", h.Document.DeleteDocument},
		{"GET /batches/{key...}", h.Batch.GetBatchStatus},
	}

	for _, route := range routes {
		if err := r.RegisterRoute(route.pattern, route.handler); err != nil {
			panic(fmt.Errorf("failed to register route %q: %w", route.pattern, err))
		}
	}
}

// RegisterRoute registers a single route with the given pattern and handler.
func (r *RouteRegistry) RegisterRoute(pattern string, handler http.Handler) error {
	if err := r.validatePattern(pattern); err != nil {
		return err
	}
	if err := r.checkRouteConflict(pattern); err != nil {
		return err
	}

	r.mux.Handle(pattern, handler)
	r.routes[pattern] = handler
	r.patterns = append(r.patterns, pattern)
	return nil
}

// BuildServeMux returns the configured ServeMux.
func (r *RouteRegistry) BuildServeMux() *http.ServeMux {
	return r.mux
}

// HasRoute checks if a route pattern is registered.
func (r *RouteRegistry) HasRoute(pattern string) bool {
	_, exists := r.routes[pattern]
	return exists
}

// RouteCount returns the number of registered routes.
func (r *RouteRegistry) RouteCount() int {
	return len(r.routes)
}

// GetPatterns returns all registered route patterns.
func (r *RouteRegistry) GetPatterns() []string {
	return r.patterns
}

func (r *RouteRegistry) validatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("route pattern cannot be empty")
	}

	parts := strings.SplitN(pattern, " ", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid route pattern '%s': must have format 'METHOD /path' (e.g., 'GET /users')", pattern)
	}
	method, path := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		http.MethodPatch, http.MethodHead, http.MethodOptions:
	default:
		return fmt.Errorf("invalid HTTP method '%s' in pattern '%s'", method, pattern)
	}

	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path '%s' in pattern '%s' must start with '/'", path, pattern)
	}
	if strings.Contains(path, "//") {
		return fmt.Errorf("path '%s' in pattern '%s' contains double slashes", path, pattern)
	}
	if strings.ContainsAny(path, "{}") {
		return validateParameterSyntax(path, pattern)
	}
	return nil
}

// validateParameterSyntax checks {name} segments. A trailing {name...}
// wildcard is accepted only as the last segment.
func validateParameterSyntax(path, pattern string) error {
	seen := make(map[string]bool)
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, segment := range segments {
		if !strings.ContainsAny(segment, "{}") {
			continue
		}
		if !strings.HasPrefix(segment, "{") || !strings.HasSuffix(segment, "}") {
			return fmt.Errorf("invalid parameter syntax in pattern '%s': segment '%s' must be a whole {name}", pattern, segment)
		}

		name := segment[1 : len(segment)-1]
		if strings.HasSuffix(name, "...") {
			if i != len(segments)-1 {
				return fmt.Errorf("wildcard '%s' in pattern '%s' must be the last segment", segment, pattern)
			}
			name = strings.TrimSuffix(name, "...")
		}
		if !isValidParameterName(name) {
			return fmt.Errorf("invalid parameter name '%s' in pattern '%s'", name, pattern)
		}
		if seen[name] {
			return fmt.Errorf("duplicate parameter name '%s' in pattern '%s'", name, pattern)
		}
		seen[name] = true
	}
	return nil
}

func isValidParameterName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

func (r *RouteRegistry) checkRouteConflict(newPattern string) error {
	newMethod, newPath, _ := strings.Cut(newPattern, " ")
	for _, existing := range r.patterns {
		method, path, _ := strings.Cut(existing, " ")
		if !strings.EqualFold(method, newMethod) {
			continue
		}
		if path == newPath {
			return fmt.Errorf("route conflict detected: pattern '%s' conflicts with existing pattern '%s' (exact duplicate)",
				newPattern, existing)
		}
		if normalizePath(path) == normalizePath(newPath) {
			return fmt.Errorf("route conflict detected: pattern '%s' conflicts with existing pattern '%s' (same structure with different parameter names)",
				newPattern, existing)
		}
	}
	return nil
}

// normalizePath replaces every parameter segment with a placeholder.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			if strings.HasSuffix(segment, "...}") {
				segments[i] = "{param...}"
			} else {
				segments[i] = "{param}"
			}
		}
	}
	return strings.Join(segments, "/")
}
