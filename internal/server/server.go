// Package server exposes the route and link verifiers and the report
// archive over an HTTP JSON API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"navcheck/internal/links"
	"navcheck/internal/logging"
	"navcheck/internal/routes"
	"navcheck/internal/store"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 60 * time.Second
	idleTimeout  = 120 * time.Second
)

// Options configures the listener and CORS policy.
type Options struct {
	Addr           string
	AllowedOrigins []string
}

// Services are the dependencies the handlers operate on. Store may be nil,
// in which case the run archive endpoints answer 503.
type Services struct {
	Routes *routes.Verifier
	Links  *links.Verifier
	Store  *store.ReportStore
	Logger *zap.Logger
}

// Server wraps the HTTP server with its handlers.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	logger     *zap.Logger
}

// New creates a new HTTP server instance.
func New(opts Options, svc Services) *Server {
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}
	h := NewHandlers(svc)
	router := setupRoutes(h, svc.Logger, opts.AllowedOrigins)

	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		handlers: h,
		logger:   svc.Logger,
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// ReplaceRouteVerifier swaps the route verifier, e.g. after the route table
// file changed.
func (s *Server) ReplaceRouteVerifier(v *routes.Verifier) {
	s.handlers.setRoutes(v)
	s.logger.Info("route verifier replaced", zap.Int("routes", v.Registry().Len()))
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(l)
}

// Serve handles requests on l until Stop is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", l.Addr().String()))
	logging.Server("Starting HTTP server on %s", l.Addr())

	if err := s.httpServer.Serve(l); err != nil && err != http.ErrServerClosed {
		logging.ServerError("HTTP server failed: %v", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	logging.Server("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handlers holds the dependencies of every endpoint.
type Handlers struct {
	mu     sync.RWMutex
	routes *routes.Verifier
	links  *links.Verifier
	store  *store.ReportStore
	logger *zap.Logger
}

// NewHandlers creates handlers over svc.
func NewHandlers(svc Services) *Handlers {
	return &Handlers{
		routes: svc.Routes,
		links:  svc.Links,
		store:  svc.Store,
		logger: svc.Logger,
	}
}

func (h *Handlers) setRoutes(v *routes.Verifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = v
}

func (h *Handlers) routeVerifier() *routes.Verifier {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.routes
}
