package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/scopefs/internal/logger"
	"github.com/marmos91/scopefs/pkg/adapter"
	"github.com/marmos91/scopefs/pkg/facade"
)

// ScopeServer manages the lifecycle of multiple protocol adapters that share
// one filesystem facade.
//
// Architecture:
// ScopeServer orchestrates different file access protocols (WebDAV today,
// others later) represented as Adapter implementations. All adapters share
// the same facade, providing a unified view of the mounts across protocols.
//
// Lifecycle:
//  1. Creation: New() with the facade
//  2. Registration: AddAdapter() for each protocol
//  3. Startup: Serve() starts all adapters concurrently
//  4. Shutdown: Context cancellation triggers graceful shutdown of all adapters
//
// Thread safety:
// ScopeServer is safe for concurrent use. AddAdapter() may be called
// concurrently with other methods. Serve() must only be called once.
//
// Example usage:
//
//	server := New(service)
//	server.AddAdapter(webdav.New(davConfig, davMetrics))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := server.Serve(ctx); err != nil && err != context.Canceled {
//	    log.Fatal(err)
//	}
type ScopeServer struct {
	// service is the shared filesystem facade injected into every adapter
	service *facade.Service

	// adapters contains all registered protocol adapters
	adapters []adapter.Adapter

	// mu protects the adapters slice and the served flag
	mu sync.Mutex

	// served indicates whether Serve() has been called
	served bool
}

// New creates a new ScopeServer around the provided facade.
//
// The facade is shared across all adapters added to this server, ensuring
// that file operations behave identically regardless of which protocol is
// used to access the data.
//
// Returns a configured but not yet started ScopeServer. Call AddAdapter()
// to register protocols, then Serve() to start the server.
//
// Panics if the facade is nil (indicates programmer error).
func New(service *facade.Service) *ScopeServer {
	if service == nil {
		panic("facade service cannot be nil")
	}

	return &ScopeServer{
		service:  service,
		adapters: make([]adapter.Adapter, 0, 4),
	}
}

// AddAdapter registers a new protocol adapter with the server.
//
// This method injects the shared facade into the adapter and adds it to the
// list of adapters that will be started when Serve() is called.
//
// Each adapter must implement a different protocol and listen on a
// different port. Duplicate protocols or port conflicts return an error.
//
// Panics if:
//   - adapter is nil (programmer error)
//   - Serve() has already been called (server is running)
//
// Thread safety:
// Safe to call concurrently from multiple goroutines before Serve().
func (s *ScopeServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot add adapter after Serve() has been called")
	}

	protocol := a.Protocol()
	port := a.Port()

	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
	}

	for _, existing := range s.adapters {
		if existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter",
				port, existing.Protocol())
		}
	}

	a.SetService(s.service)
	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on port %d", protocol, port)

	return nil
}

// Serve starts all registered adapters and blocks until the context is
// cancelled or an adapter fails.
//
// Serve() orchestrates the lifecycle of all adapters:
//  1. Validates that at least one adapter is registered
//  2. Starts all adapters concurrently in separate goroutines
//  3. Monitors for context cancellation or adapter failures
//  4. On shutdown signal: stops all adapters in reverse order
//  5. Waits for all adapters to complete shutdown
//
// Error handling:
//   - If context is cancelled: initiates graceful shutdown and returns context.Canceled
//   - If any adapter fails to start or fails during operation: stops all
//     adapters and returns the failing adapter's error
//
// Panics if Serve() is called more than once on the same instance.
func (s *ScopeServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		panic("Serve() has already been called on this server instance")
	}
	s.served = true

	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	logger.Info("Starting ScopeFS server with %d adapter(s)", len(adapters))

	// Buffered so every failing adapter can report without leaking its goroutine
	errChan := make(chan adapterError, len(adapters))

	var wg sync.WaitGroup
	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			if err := a.Serve(ctx); err != nil {
				// context.Canceled is expected during shutdown
				if err != context.Canceled && ctx.Err() == nil {
					logger.Error("%s adapter failed: %v", protocol, err)
					errChan <- adapterError{protocol: protocol, err: err}
				} else {
					logger.Debug("%s adapter stopped gracefully", protocol)
				}
			} else {
				logger.Info("%s adapter stopped", protocol)
			}
		}(adp)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		s.stopAllAdapters(adapters)
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - initiating shutdown of all adapters",
			adapterErr.protocol, adapterErr.err)
		s.stopAllAdapters(adapters)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	logger.Debug("Waiting for all adapters to complete shutdown")
	wg.Wait()

	logger.Info("ScopeFS server stopped")

	return shutdownErr
}

// adapterError pairs an adapter protocol name with its error for better error reporting.
type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters initiates graceful shutdown of all adapters in reverse
// registration order.
//
// Each adapter receives a Stop() call sharing one timeout context, so a
// single misbehaving adapter cannot block shutdown indefinitely. Errors are
// logged and the remaining adapters still get stopped.
//
// Note: This method only initiates shutdown. The caller waits for adapter
// goroutines to complete via the WaitGroup.
func (s *ScopeServer) stopAllAdapters(adapters []adapter.Adapter) {
	const stopTimeout = 30 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		protocol := adp.Protocol()

		logger.Debug("Stopping %s adapter (port %d)", protocol, adp.Port())

		if err := adp.Stop(ctx); err != nil && err != context.Canceled {
			logger.Error("Error stopping %s adapter: %v", protocol, err)
		} else {
			logger.Debug("%s adapter stop signal sent", protocol)
		}
	}
}

// Adapters returns a snapshot of currently registered adapters.
//
// The returned slice is a copy and safe to iterate over without holding
// locks.
//
// Thread safety:
// Safe to call concurrently with AddAdapter() and Serve().
func (s *ScopeServer) Adapters() []adapter.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
