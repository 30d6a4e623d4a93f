package framework

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/scopefs/internal/logger"
	"github.com/marmos91/scopefs/pkg/adapter/webdav"
	"github.com/marmos91/scopefs/pkg/facade"
	"github.com/marmos91/scopefs/pkg/registry"
	"github.com/marmos91/scopefs/pkg/server"
	"github.com/marmos91/scopefs/pkg/store/local"
	"github.com/marmos91/scopefs/pkg/store/memory"
)

// BackendType selects the storage backend the test server mounts.
type BackendType string

const (
	BackendMemory BackendType = "memory"
	BackendLocal  BackendType = "local"
)

// MountSpec describes one mount the test server exposes.
type MountSpec struct {
	Name     string
	ReadOnly bool
}

// TestServerConfig holds configuration for the test server.
type TestServerConfig struct {
	Port           int
	Backend        BackendType
	Mounts         []MountSpec
	LogLevel       string
	StartupTimeout time.Duration
}

// TestServer wraps a full ScopeFS server (registry, facade, WebDAV
// adapter) for end-to-end tests.
type TestServer struct {
	t        testing.TB
	config   TestServerConfig
	server   *server.ScopeServer
	registry *registry.Registry
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
	tempDir  string // backend root for the local backend
}

// NewTestServer creates a new test server instance.
func NewTestServer(t testing.TB, config TestServerConfig) *TestServer {
	t.Helper()

	if config.Port == 0 {
		config.Port = findFreePort(t)
	}
	if config.Backend == "" {
		config.Backend = BackendMemory
	}
	if len(config.Mounts) == 0 {
		config.Mounts = []MountSpec{{Name: "export"}}
	}
	if config.LogLevel == "" {
		config.LogLevel = "ERROR" // Keep tests quiet by default
	}
	if config.StartupTimeout == 0 {
		config.StartupTimeout = 10 * time.Second
	}

	tempDir, err := os.MkdirTemp("", "scopefs-e2e-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TestServer{
		t:       t,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		tempDir: tempDir,
	}
}

// Start starts the test server and waits until it accepts connections.
func (ts *TestServer) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return fmt.Errorf("server already started")
	}

	ts.t.Helper()

	logger.SetLevel(ts.config.LogLevel)

	ts.registry = registry.NewRegistry()

	switch ts.config.Backend {
	case BackendMemory:
		if err := ts.registry.RegisterBackend("memory", memory.NewBackend()); err != nil {
			return fmt.Errorf("failed to register memory backend: %w", err)
		}
		ts.t.Logf("Using memory backend")
	case BackendLocal:
		// Local mounts must exist before the server starts; create them
		// like an operator provisioning the data directory would.
		for _, m := range ts.config.Mounts {
			if err := os.MkdirAll(filepath.Join(ts.tempDir, m.Name), 0755); err != nil {
				return fmt.Errorf("failed to create mount directory: %w", err)
			}
		}
		backend, err := local.NewBackend(ts.tempDir)
		if err != nil {
			return fmt.Errorf("failed to create local backend: %w", err)
		}
		if err := ts.registry.RegisterBackend("local", backend); err != nil {
			return fmt.Errorf("failed to register local backend: %w", err)
		}
		ts.t.Logf("Using local backend at %s", ts.tempDir)
	default:
		return fmt.Errorf("unknown backend type: %s", ts.config.Backend)
	}

	for _, m := range ts.config.Mounts {
		err := ts.registry.AddMount(ts.ctx, &registry.MountConfig{
			Name:     m.Name,
			Backend:  string(ts.config.Backend),
			ReadOnly: m.ReadOnly,
		})
		if err != nil {
			return fmt.Errorf("failed to add mount %q: %w", m.Name, err)
		}
		ts.t.Logf("Added mount %s (read-only: %v)", m.Name, m.ReadOnly)
	}

	davAdapter := webdav.New(webdav.DavConfig{
		Enabled: true,
		Port:    ts.config.Port,
	}, nil) // nil = no metrics for tests

	ts.server = server.New(facade.NewService(ts.registry))
	_ = ts.server.AddAdapter(davAdapter)

	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		if err := ts.server.Serve(ts.ctx); err != nil && err != context.Canceled {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	ts.t.Logf("Waiting for server to start on port %d...", ts.config.Port)
	if err := ts.waitForServer(); err != nil {
		ts.cancel()
		ts.wg.Wait()
		return fmt.Errorf("server failed to start: %w", err)
	}

	ts.started = true
	ts.t.Logf("Server started successfully on port %d", ts.config.Port)
	return nil
}

// Stop stops the test server and cleans up resources.
func (ts *TestServer) Stop() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		return nil
	}

	ts.t.Helper()
	ts.t.Logf("Stopping server...")

	ts.cancel()

	done := make(chan struct{})
	go func() {
		ts.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ts.t.Logf("Server stopped gracefully")
	case <-time.After(5 * time.Second):
		ts.t.Logf("Server stop timeout - forcing shutdown")
	}

	if ts.tempDir != "" {
		if err := os.RemoveAll(ts.tempDir); err != nil {
			ts.t.Logf("Warning: failed to remove temp directory %s: %v", ts.tempDir, err)
		}
	}

	ts.started = false
	return nil
}

// Port returns the port the server is listening on.
func (ts *TestServer) Port() int {
	return ts.config.Port
}

// Registry returns the registry instance for direct inspection.
func (ts *TestServer) Registry() *registry.Registry {
	return ts.registry
}

// BackendDir returns the local backend root directory. Only meaningful for
// BackendLocal servers.
func (ts *TestServer) BackendDir() string {
	return ts.tempDir
}

// waitForServer waits for the server to accept TCP connections.
func (ts *TestServer) waitForServer() error {
	deadline := time.Now().Add(ts.config.StartupTimeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", ts.config.Port), 500*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			ts.t.Logf("Server is accepting connections on port %d", ts.config.Port)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for server to start")
}

// findFreePort finds an available port.
func findFreePort(t testing.TB) int {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	// Give the OS time to release the port
	time.Sleep(100 * time.Millisecond)
	return port
}
