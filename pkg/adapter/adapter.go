package adapter

import (
	"context"

	"github.com/marmos91/scopefs/pkg/facade"
)

// Adapter represents a protocol-specific server adapter that can be managed
// by the Server.
//
// Each adapter implements one client-facing protocol (WebDAV today; the
// seam exists for others) and provides a unified interface for lifecycle
// management. All adapters drive the same service facade, ensuring
// consistent filesystem semantics across protocols.
//
// Lifecycle:
//  1. Creation: Adapter is created with protocol-specific configuration
//  2. Service injection: SetService() provides the shared file service
//  3. Startup: Serve() starts the protocol server and blocks until shutdown
//  4. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. SetService() is called
// once before Serve(), but Stop() may be called concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is
	// cancelled or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	//   - Stop accepting new connections
	//   - Wait for active operations to complete (with timeout)
	//   - Clean up resources
	//   - Return context.Canceled or nil
	//
	// If Serve returns before context cancellation, the Server treats it as
	// a fatal error and stops all other adapters.
	Serve(ctx context.Context) error

	// SetService injects the shared service facade.
	//
	// This method is called exactly once by the Server before Serve().
	// Implementations store the service and translate every client request
	// into its operations.
	//
	// Thread safety:
	// Called before Serve(), no synchronization needed.
	SetService(service *facade.Service)

	// Stop initiates graceful shutdown of the protocol server.
	//
	// This method may be called concurrently with Serve() during shutdown.
	// Implementations must:
	//   - Be safe to call multiple times (idempotent)
	//   - Be safe to call concurrently with Serve()
	//   - Respect the context timeout for shutdown operations
	//   - Clean up all resources (listeners, connections, goroutines)
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging and
	// metrics.
	//
	// Examples: "WebDAV", "NFS", "SMB"
	//
	// The returned value should be constant for the lifecycle of the
	// adapter.
	Protocol() string

	// Port returns the TCP port the adapter is listening on.
	//
	// This is used for logging and health checks. The returned value should
	// be constant after Serve() is called.
	//
	// Returns 0 if the adapter has not yet started or uses dynamic port
	// allocation.
	Port() int
}
