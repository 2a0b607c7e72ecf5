package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/config"
	"textembedder/internal/port/inbound"
)

// Server represents the HTTP API server.
type Server struct {
	config        *config.Config
	httpServer    *http.Server
	routeRegistry *RouteRegistry
	listener      net.Listener
	isRunning     bool
	mu            sync.RWMutex
}

// MiddlewareFunc defines the middleware function signature.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerBuilder provides a fluent interface for building Server instances.
type ServerBuilder struct {
	config          *config.Config
	healthService   inbound.HealthService
	searchService   inbound.SearchService
	documentService inbound.DocumentService
	batchService    inbound.BatchStatusService
	errorHandler    ErrorHandler
	middleware      []MiddlewareFunc
}

// NewServerBuilder creates a new ServerBuilder.
func NewServerBuilder(config *config.Config) *ServerBuilder {
	return &ServerBuilder{
		config:     config,
		middleware: make([]MiddlewareFunc, 0),
	}
}

// WithHealthService sets the health service.
func (b *ServerBuilder) WithHealthService(service inbound.HealthService) *ServerBuilder {
	b.healthService = service
	return b
}

// WithSearchService sets the search service.
func (b *ServerBuilder) WithSearchService(service inbound.SearchService) *ServerBuilder {
	b.searchService = service
	return b
}

// WithDocumentService sets the document service.
func (b *ServerBuilder) WithDocumentService(service inbound.DocumentService) *ServerBuilder {
	b.documentService = service
	return b
}

// WithBatchStatusService sets the batch status service.
func (b *ServerBuilder) WithBatchStatusService(service inbound.BatchStatusService) *ServerBuilder {
	b.batchService = service
	return b
}

// WithErrorHandler sets the error handler.
func (b *ServerBuilder) WithErrorHandler(handler ErrorHandler) *ServerBuilder {
	b.errorHandler = handler
	return b
}

// WithMiddleware adds middleware to the chain. The first added runs outermost.
func (b *ServerBuilder) WithMiddleware(middleware MiddlewareFunc) *ServerBuilder {
	b.middleware = append(b.middleware, middleware)
	return b
}

// WithDefaultMiddleware adds the standard middleware chain.
func (b *ServerBuilder) WithDefaultMiddleware() *ServerBuilder {
	return b.
		WithMiddleware(NewLoggingMiddleware()).
		WithMiddleware(NewRecoveryMiddleware()).
		WithMiddleware(NewCORSMiddleware())
}

// Build creates the Server instance.
func (b *ServerBuilder) Build() (*Server, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("server builder validation failed: %w", err)
	}
	if err := validateServerConfig(b.config); err != nil {
		return nil, err
	}

	registry := NewRouteRegistry()
	registry.RegisterAPIRoutes(Handlers{
		Health:   NewHealthHandler(b.healthService, b.errorHandler),
		Search:   NewSearchHandler(b.searchService, b.errorHandler),
		Document: NewDocumentHandler(b.documentService, b.errorHandler),
		Batch:    NewBatchHandler(b.batchService, b.errorHandler),
	})

	var handler http.Handler = registry.BuildServeMux()
	for i := len(b.middleware) - 1; i >= 0; i-- {
		handler = b.middleware[i](handler)
	}

	host := b.config.API.Host
	if host == "" {
		host = "0.0.0.0"
	}

	return &Server{
		config: b.config,
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(host, b.config.API.Port),
			Handler:           handler,
			ReadTimeout:       b.config.API.ReadTimeout,
			ReadHeaderTimeout: b.config.API.ReadTimeout,
			WriteTimeout:      b.config.API.WriteTimeout,
		},
		routeRegistry: registry,
	}, nil
}

func (b *ServerBuilder) validate() error {
	switch {
	case b.config == nil:
		return errors.New("config is required")
	case b.healthService == nil:
		return errors.New("health service is required")
	case b.searchService == nil:
		return errors.New("search service is required")
	case b.documentService == nil:
		return errors.New("document service is required")
	case b.batchService == nil:
		return errors.New("batch status service is required")
	case b.errorHandler == nil:
		return errors.New("error handler is required")
	}
	return nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return errors.New("server is already running")
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = listener.Close()
		return err
	}

	s.listener = listener
	s.httpServer.Addr = listener.Addr().String()
	s.isRunning = true

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.ErrorWithErrorNoCtx(err, "HTTP server stopped", slogger.Fields{"address": listener.Addr().String()})
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}
	}()

	slogger.InfoNoCtx("HTTP server listening", slogger.Fields{"address": s.httpServer.Addr})
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the full handler chain, for serving in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Address returns the server's listening address.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.httpServer.Addr
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// HasRoute checks if a specific route is registered.
func (s *Server) HasRoute(pattern string) bool {
	return s.routeRegistry.HasRoute(pattern)
}

// RouteCount returns the number of registered routes.
func (s *Server) RouteCount() int {
	return s.routeRegistry.RouteCount()
}

// ReadTimeout returns the server's read timeout.
func (s *Server) ReadTimeout() time.Duration {
	return s.httpServer.ReadTimeout
}

func validateServerConfig(config *config.Config) error {
	if config.API.Port != "" && config.API.Port != "0" {
		if port, err := strconv.Atoi(config.API.Port); err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", config.API.Port)
		}
	}
	if config.API.ReadTimeout < 0 || config.API.WriteTimeout < 0 {
		return errors.New("invalid timeout")
	}
	return nil
}
