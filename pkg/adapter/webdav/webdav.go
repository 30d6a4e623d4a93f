package webdav

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/net/netutil"

	"github.com/marmos91/scopefs/internal/logger"
	"github.com/marmos91/scopefs/internal/ratelimiter"
	"github.com/marmos91/scopefs/pkg/facade"
	"github.com/marmos91/scopefs/pkg/metrics"
)

// DavAdapter implements the adapter.Adapter interface for a WebDAV subset
// over HTTP.
//
// The adapter exposes every mount under /mount/{mount}/{path} and supports
// GET (whole files, byte ranges, collection listings), HEAD, PUT, DELETE,
// MKCOL, COPY, MOVE and OPTIONS. All filesystem semantics live in the
// facade; the adapter only translates HTTP requests and headers.
//
// Architecture:
// Requests are served by an echo instance wrapped in an h2c handler so both
// HTTP/1.1 and cleartext HTTP/2 clients work. Concurrency is bounded at the
// listener (MaxConnections) and optionally per request through a token
// bucket rate limiter.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed, in-flight requests drain via http.Server.Shutdown
//  3. After ShutdownTimeout remaining connections are force-closed
//
// Thread safety:
// All methods are safe for concurrent use. Stop() is idempotent through
// sync.Once.
type DavAdapter struct {
	// config holds the server configuration (port, timeouts, limits)
	config DavConfig

	// service is the protocol-agnostic filesystem facade shared by all
	// adapters, injected via SetService before Serve
	service *facade.Service

	// metrics provides optional Prometheus metrics collection
	metrics metrics.DavMetrics

	// limiter throttles requests when a rate limit is configured
	// nil means unlimited
	limiter *ratelimiter.RateLimiter

	// server is the underlying HTTP server, created by Serve
	server *http.Server

	// boundPort holds the port actually bound by the listener, which
	// differs from config.Port when it was 0
	boundPort atomic.Int32

	// shutdownOnce ensures shutdown is only initiated once
	shutdownOnce sync.Once

	// shutdown signals that shutdown has been initiated
	// Closed by Stop(), monitored by Serve()
	shutdown chan struct{}
}

// DavConfig holds configuration parameters for the WebDAV server.
//
// All timeout values are optional - zero disables the corresponding
// timeout. Read and write timeouts stay disabled by default because large
// uploads and downloads legitimately exceed any fixed bound; slow-client
// protection comes from IdleTimeout and the connection limit instead.
type DavConfig struct {
	// Enabled controls whether the WebDAV adapter is active.
	// When false, the WebDAV adapter will not be started.
	Enabled bool `mapstructure:"enabled"`

	// Port is the TCP port to listen on for HTTP connections.
	// If 0, defaults to 5000.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// MaxConnections limits the number of concurrent client connections.
	// When reached, new connections wait until existing ones close.
	// 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// ReadTimeout is the maximum duration for reading an entire request,
	// including a streamed upload body. 0 means no timeout.
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=0"`

	// WriteTimeout is the maximum duration for writing a response,
	// including a streamed download body. 0 means no timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"min=0"`

	// IdleTimeout is the maximum duration a keep-alive connection can
	// remain idle between requests before being closed.
	// If 0, defaults to 5m.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// requests to complete during graceful shutdown.
	// If 0, defaults to 30s.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// RateLimit is the maximum sustained request rate in requests per
	// second. 0 means unlimited.
	RateLimit uint `mapstructure:"rate_limit"`

	// RateBurst is the token bucket capacity for request bursts.
	// If 0, defaults to twice RateLimit.
	RateBurst uint `mapstructure:"rate_burst"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *DavConfig) applyDefaults() {
	// Note: Enabled field defaults are handled in pkg/config/defaults.go
	// to allow explicit false values from configuration files.

	if c.Port <= 0 {
		c.Port = 5000
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 5 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = c.RateLimit * 2
	}
}

// validate checks that the configuration is valid for production use.
func (c *DavConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid ReadTimeout %v: must be >= 0", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid WriteTimeout %v: must be >= 0", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid IdleTimeout %v: must be >= 0", c.IdleTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// New creates a new DavAdapter with the specified configuration.
//
// The adapter is created in a stopped state. Call SetService() to inject
// the filesystem facade, then call Serve() to start accepting requests.
//
// Zero values in config are replaced with sensible defaults.
//
// Parameters:
//   - config: Server configuration (port, timeouts, limits)
//   - davMetrics: Optional metrics collector (nil for no metrics)
//
// Panics if config validation fails.
func New(config DavConfig, davMetrics metrics.DavMetrics) *DavAdapter {
	config.applyDefaults()

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid WebDAV config: %v", err))
	}

	var limiter *ratelimiter.RateLimiter
	if config.RateLimit > 0 {
		limiter = ratelimiter.New(config.RateLimit, config.RateBurst)
		logger.Debug("WebDAV rate limit: %d req/s (burst %d)", config.RateLimit, config.RateBurst)
	}

	if davMetrics == nil {
		davMetrics = &noopDavMetrics{}
	}

	return &DavAdapter{
		config:   config,
		metrics:  davMetrics,
		limiter:  limiter,
		shutdown: make(chan struct{}),
	}
}

// noopDavMetrics provides a local no-op implementation when metrics package is not used
type noopDavMetrics struct{}

func (noopDavMetrics) RecordRequest(method, mount string, status int, duration time.Duration) {}
func (noopDavMetrics) RecordRequestStart(method string)                                       {}
func (noopDavMetrics) RecordRequestEnd(method string)                                         {}
func (noopDavMetrics) RecordBytesTransferred(direction string, bytes int64)                   {}

// SetService injects the shared filesystem facade.
//
// This method is called by the server orchestrator before Serve(). The
// facade is shared across all protocol adapters.
//
// Thread safety:
// Called exactly once before Serve(), no synchronization needed.
func (s *DavAdapter) SetService(service *facade.Service) {
	s.service = service
	logger.Debug("WebDAV facade configured")
}

// Serve starts the WebDAV server and blocks until the context is cancelled,
// Stop() is called, or an unrecoverable error occurs.
//
// When the context is cancelled, Serve initiates graceful shutdown: the
// listener stops accepting connections and in-flight requests get up to
// ShutdownTimeout to complete before being force-closed.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the listener fails to start or shutdown is not graceful
//
// Thread safety:
// Serve() should only be called once per DavAdapter instance.
func (s *DavAdapter) Serve(ctx context.Context) error {
	if s.service == nil {
		return fmt.Errorf("WebDAV adapter has no facade configured: call SetService before Serve")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create WebDAV listener on port %d: %w", s.config.Port, err)
	}
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.boundPort.Store(int32(addr.Port))
	}

	if s.config.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, s.config.MaxConnections)
		logger.Debug("WebDAV connection limit: %d", s.config.MaxConnections)
	} else {
		logger.Debug("WebDAV connection limit: unlimited")
	}

	// Accept both HTTP/2 and HTTP/1
	s.server = &http.Server{
		Handler:      h2c.NewHandler(s.buildEcho(), &http2.Server{}),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("WebDAV server listening on port %d", s.Port())

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("WebDAV shutdown signal received: %v", ctx.Err())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case <-s.shutdown:
		// Stop() was called directly and handles the drain itself
		return nil
	case err := <-errChan:
		return fmt.Errorf("WebDAV server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the WebDAV server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Serve(). In-flight requests get until the context deadline to complete;
// after that remaining connections are force-closed.
//
// Returns:
//   - nil on successful graceful shutdown
//   - error if connections had to be force-closed
func (s *DavAdapter) Stop(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
	}

	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("WebDAV shutdown initiated")
		close(s.shutdown)

		if s.server == nil {
			return
		}

		if err := s.server.Shutdown(ctx); err != nil {
			logger.Warn("WebDAV graceful shutdown failed, force-closing connections: %v", err)
			if closeErr := s.server.Close(); closeErr != nil {
				logger.Debug("Error force-closing WebDAV server: %v", closeErr)
			}
			shutdownErr = fmt.Errorf("WebDAV shutdown error: %w", err)
		} else {
			logger.Info("WebDAV server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the WebDAV server is listening on.
//
// Before Serve() this is the configured port; afterwards it is the port
// actually bound, which matters when the configuration asked for port 0.
func (s *DavAdapter) Port() int {
	if port := s.boundPort.Load(); port != 0 {
		return int(port)
	}
	return s.config.Port
}

// Protocol returns "WebDAV" as the protocol identifier.
func (s *DavAdapter) Protocol() string {
	return "WebDAV"
}
