// Package server provides the HTTP server of the restaurant service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/config"
	"github.com/vyrodovalexey/restaurant/internal/observability"
	"github.com/vyrodovalexey/restaurant/internal/server/middleware"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// ErrAlreadyRunning is returned by Start on a running server.
var ErrAlreadyRunning = errors.New("server already running")

// DefaultMaxHeaderBytes is the maximum size of request headers.
const DefaultMaxHeaderBytes = 1 << 20

// Server is the HTTP server. Routes are registered on Engine before Start.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	logger     observability.Logger
	config     config.ServerConfig
	mu         sync.RWMutex
	running    bool
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	metrics     *observability.Metrics
	serviceName string
}

// WithMetrics installs the HTTP metrics middleware.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *serverOptions) { o.metrics = m }
}

// WithTracing installs the tracing middleware under serviceName.
func WithTracing(serviceName string) Option {
	return func(o *serverOptions) { o.serviceName = serviceName }
}

// New creates a server with the standard middleware chain: request ID,
// recovery, tracing, metrics, access log, CORS, request timeout and body
// limit, in that order. Unknown routes answer 404 with a not_found body.
func New(cfg config.ServerConfig, logger observability.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = observability.NopLogger()
	}
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	ginModeOnce.Do(func() {
		if gin.Mode() == gin.DebugMode {
			gin.SetMode(gin.ReleaseMode)
		}
	})

	engine := gin.New()
	engine.HandleMethodNotAllowed = false

	engine.Use(middleware.RequestID(), middleware.Recovery(logger))
	if o.serviceName != "" {
		engine.Use(middleware.Tracing(o.serviceName))
	}
	if o.metrics != nil {
		engine.Use(middleware.Metrics(o.metrics))
	}
	engine.Use(
		middleware.Logging(logger),
		middleware.CORS(cfg.CORS),
		middleware.Timeout(cfg.RequestTimeout.Duration(), logger),
		middleware.BodyLimit(cfg.MaxRequestBodySize),
	)
	engine.NoRoute(func(c *gin.Context) {
		apperr.Abort(c, apperr.NotFound("route not found"))
	})

	return &Server{
		engine: engine,
		logger: logger,
		config: cfg,
	}
}

// Engine returns the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start listens on the configured address and serves until Stop is called
// or the listener fails. It returns nil after a graceful Stop.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout.Duration(),
		WriteTimeout:   s.config.WriteTimeout.Duration(),
		IdleTimeout:    s.config.IdleTimeout.Duration(),
		MaxHeaderBytes: DefaultMaxHeaderBytes,
	}
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", ln.Addr().String()),
		observability.Duration("read_timeout", s.config.ReadTimeout.Duration()),
		observability.Duration("write_timeout", s.config.WriteTimeout.Duration()),
	)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully, waiting for in-flight requests
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")
	start := time.Now()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped", observability.Duration("drain", time.Since(start)))
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
