package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mchmarny/menugate/pkg/logger"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = 9876

	// DefaultReadTimeout is the maximum duration for reading the entire request,
	// including the body. This helps prevent slowloris attacks.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the maximum duration to wait for active connections
	// to gracefully close during server shutdown. Should be less than Kubernetes
	// terminationGracePeriodSeconds to allow proper pod termination.
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultMaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the request line.
	DefaultMaxHeaderBytes = 1 << 20 // 1 MB

	// DefaultProbeTimeout bounds a single health or readiness check.
	DefaultProbeTimeout = 2 * time.Second
)

// Server defines the interface for the menu HTTP server.
// Implementations must support graceful shutdown via context cancellation.
type Server interface {
	// Serve starts the HTTP server and blocks until the context is canceled.
	// Returns nil on successful graceful shutdown.
	Serve(ctx context.Context) error

	// IsRunning returns true if the server is currently accepting connections.
	IsRunning() bool

	// Addr returns the bound listener address, or an empty string when not running.
	Addr() string

	// Handler returns the root handler with all middleware applied.
	Handler() http.Handler
}

// HealthChecker reports liveness. It should not depend on external services.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// ReadinessChecker reports whether the component can serve traffic.
// Unlike health checks, readiness may depend on external services such as the
// menu configuration source.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

type server struct {
	mux             *http.ServeMux       // HTTP request multiplexer
	port            int                  // Port to listen on
	readTimeout     time.Duration        // Maximum duration for reading requests
	writeTimeout    time.Duration        // Maximum duration for writing responses
	idleTimeout     time.Duration        // Maximum idle time for keep-alive connections
	shutdownTimeout time.Duration        // Grace period for shutdown
	maxHeaderBytes  int                  // Maximum header size in bytes
	errLog          *log.Logger          // Error logger handed to http.Server
	tlsConfig       *TLSConfig           // Optional TLS configuration
	registry        *prometheus.Registry // Prometheus registry for metrics
	metrics         bool                 // Serve /metrics from registry
	health          []HealthChecker      // Liveness checks behind /healthz
	readiness       []ReadinessChecker   // Readiness checks behind /readyz

	mu      sync.RWMutex // Protects running state and addr
	running bool
	addr    string
}

// TLSConfig contains the certificate and key file paths for TLS/HTTPS support.
type TLSConfig struct {
	CertFile string // Path to the TLS certificate file
	KeyFile  string // Path to the TLS private key file
}

// Option is a functional option for configuring the Server.
type Option func(*server)

// WithPort sets the port number for the HTTP server. Zero picks a free port.
// If not specified, DefaultPort (9876) is used.
func WithPort(port int) Option {
	return func(s *server) { s.port = port }
}

// WithReadTimeout sets the maximum duration for reading the entire request.
func WithReadTimeout(d time.Duration) Option {
	return func(s *server) { s.readTimeout = d }
}

// WithWriteTimeout sets the maximum duration before timing out writes of the response.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *server) { s.writeTimeout = d }
}

// WithIdleTimeout sets the maximum time to wait for the next request when keep-alives are enabled.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *server) { s.idleTimeout = d }
}

// WithShutdownTimeout sets the maximum duration to wait for graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *server) { s.shutdownTimeout = d }
}

// WithMaxHeaderBytes sets the maximum number of bytes to read from request headers.
func WithMaxHeaderBytes(n int) Option {
	return func(s *server) { s.maxHeaderBytes = n }
}

// WithHandler registers an HTTP handler for the specified pattern.
// Multiple handlers can be registered by calling this option multiple times.
func WithHandler(pattern string, handler http.Handler) Option {
	return func(s *server) {
		s.mux.Handle(pattern, handler)
	}
}

// WithRegistry replaces the server's private Prometheus registry so callers
// can register their own collectors on it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *server) { s.registry = reg }
}

// WithMetrics serves the registry at /metrics.
func WithMetrics() Option {
	return func(s *server) { s.metrics = true }
}

// WithHealth adds a liveness check to /healthz.
func WithHealth(hc HealthChecker) Option {
	return func(s *server) { s.health = append(s.health, hc) }
}

// WithReadiness adds a readiness check to /readyz.
func WithReadiness(rc ReadinessChecker) Option {
	return func(s *server) { s.readiness = append(s.readiness, rc) }
}

// WithTLS configures the server to use TLS/HTTPS with the provided certificate and key files.
//
// Example:
//
//	srv := server.New(
//	    server.WithPort(8443),
//	    server.WithTLS(server.TLSConfig{
//	        CertFile: "/path/to/cert.pem",
//	        KeyFile:  "/path/to/key.pem",
//	    }),
//	)
func WithTLS(cfg TLSConfig) Option {
	return func(s *server) {
		s.tlsConfig = &cfg
	}
}

// New creates a new HTTP server with the provided options.
//
// Default configuration:
//   - Port: 9876
//   - ReadTimeout: 10s
//   - WriteTimeout: 10s
//   - IdleTimeout: 60s
//   - ShutdownTimeout: 5s
//   - MaxHeaderBytes: 1 MB
//
// /healthz and /readyz are always registered; without checkers they report ok.
func New(opts ...Option) Server {
	s := &server{
		port:            DefaultPort,
		readTimeout:     DefaultReadTimeout,
		writeTimeout:    DefaultWriteTimeout,
		idleTimeout:     DefaultIdleTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		maxHeaderBytes:  DefaultMaxHeaderBytes,
		mux:             http.NewServeMux(),
		registry:        prometheus.NewRegistry(),
		errLog:          logger.NewLogLogger(slog.LevelError, false),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mux.Handle("/healthz", probeHandler(func(ctx context.Context) error {
		for _, hc := range s.health {
			if err := hc.Healthy(ctx); err != nil {
				return err
			}
		}
		return nil
	}))

	s.mux.Handle("/readyz", probeHandler(func(ctx context.Context) error {
		for _, rc := range s.readiness {
			if err := rc.Ready(ctx); err != nil {
				return err
			}
		}
		return nil
	}))

	if s.metrics {
		s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	slog.Info("server initialized",
		"port", s.port,
		"read_timeout", s.readTimeout,
		"write_timeout", s.writeTimeout,
		"metrics", s.metrics)

	return s
}

// probeHandler answers 200 "ok" when check passes and 503 with the error otherwise.
func probeHandler(check func(ctx context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), DefaultProbeTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if err := check(ctx); err != nil {
			slog.Warn("probe failed", "path", r.URL.Path, "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Handler returns the multiplexer wrapped in the request logging middleware.
func (s *server) Handler() http.Handler {
	return withRequestLogging(s.mux)
}

// IsRunning returns true if the server is currently running and accepting connections.
// It returns false before the socket is bound and after the server has stopped.
func (s *server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.running
}

// Addr returns the address the listener is bound to.
func (s *server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.addr
}

func (s *server) setRunning(running bool, addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = running
	s.addr = addr
}

// Serve starts the HTTP server and blocks until the context is canceled or an error occurs.
//
// The server uses errgroup to manage two goroutines:
//  1. Server goroutine: serves on the pre-bound listener
//  2. Shutdown goroutine: waits for context cancellation and initiates graceful shutdown
//
// http.ErrServerClosed is not considered an error; all other errors are returned.
func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", s.port),
		Handler:        s.Handler(),
		ReadTimeout:    s.readTimeout,
		WriteTimeout:   s.writeTimeout,
		IdleTimeout:    s.idleTimeout,
		MaxHeaderBytes: s.maxHeaderBytes,
		ErrorLog:       s.errLog,
	}

	listener, err := s.listen(srv.Addr)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Mark server as running only after the socket is bound
		s.setRunning(true, listener.Addr().String())
		defer s.setRunning(false, "")

		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		slog.Info("shutting down server", "grace_period", s.shutdownTimeout)

		shutdownStart := time.Now()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		slog.Info("server shutdown complete", "duration", time.Since(shutdownStart))

		return nil
	})

	return g.Wait()
}

func (s *server) listen(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	if s.tlsConfig == nil {
		slog.Info("starting server", "addr", listener.Addr().String())
		return listener, nil
	}

	cert, err := tls.LoadX509KeyPair(s.tlsConfig.CertFile, s.tlsConfig.KeyFile)
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	slog.Info("starting TLS server", "addr", listener.Addr().String())

	return tls.NewListener(listener, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}
