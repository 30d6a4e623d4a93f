package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/scopefs/pkg/vfs"
)

// Registry manages all named resources: storage backends and the mounts
// carved out of them. It provides thread-safe registration and lookup of
// all server resources.
//
// The Registry is also the mount resolver handed to the service layer:
// every request's first path segment is looked up here, and names that were
// never configured come back as not found. Client traffic can never create
// a mount.
//
// Example usage:
//
//	reg := NewRegistry()
//	reg.RegisterBackend("local-disk", backend)
//	reg.AddMount(ctx, &MountConfig{Name: "docs", Backend: "local-disk"})
//
//	fs, _ := reg.GetFilesystem(ctx, "docs")
type Registry struct {
	mu       sync.RWMutex
	backends map[string]vfs.Backend
	mounts   map[string]*Mount
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]vfs.Backend),
		mounts:   make(map[string]*Mount),
	}
}

// RegisterBackend adds a named storage backend to the registry.
// Returns an error if a backend with the same name already exists.
func (r *Registry) RegisterBackend(name string, backend vfs.Backend) error {
	if backend == nil {
		return fmt.Errorf("cannot register nil backend")
	}
	if name == "" {
		return fmt.Errorf("cannot register backend with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}

	r.backends[name] = backend
	return nil
}

// AddMount resolves and registers a new mount with the given configuration.
// This method:
//  1. Validates that the mount doesn't already exist
//  2. Validates that the referenced backend exists
//  3. Resolves the mount directory through the backend
//  4. Registers the mount in the registry
//
// Returns an error if:
// - A mount with the same name already exists
// - The referenced backend doesn't exist
// - The backend fails to resolve the mount directory
func (r *Registry) AddMount(ctx context.Context, config *MountConfig) error {
	if config.Name == "" {
		return fmt.Errorf("cannot add mount with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.mounts[config.Name]; exists {
		return fmt.Errorf("mount %q already exists", config.Name)
	}

	backend, exists := r.backends[config.Backend]
	if !exists {
		return fmt.Errorf("backend %q not found", config.Backend)
	}

	dir := config.Dir
	if dir == "" {
		dir = config.Name
	}

	fs, err := backend.Mount(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to resolve mount %q: %w", config.Name, err)
	}

	r.mounts[config.Name] = &Mount{
		Name:       config.Name,
		Backend:    config.Backend,
		Filesystem: fs,
		ReadOnly:   config.ReadOnly,
	}

	return nil
}

// RemoveMount removes a mount from the registry.
// Returns an error if the mount doesn't exist.
// Note: This does NOT touch the underlying backend, as it may serve other
// mounts.
func (r *Registry) RemoveMount(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.mounts[name]; !exists {
		return fmt.Errorf("mount %q not found", name)
	}

	delete(r.mounts, name)
	return nil
}

// GetMount retrieves a mount by name. Unknown names are reported with the
// not-found code so protocol layers can answer 404 without translation.
func (r *Registry) GetMount(name string) (*Mount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mount, exists := r.mounts[name]
	if !exists {
		return nil, vfs.NotFoundError(name)
	}
	return mount, nil
}

// GetFilesystem resolves a mount name to its filesystem.
//
// This implements vfs.Provider.
func (r *Registry) GetFilesystem(ctx context.Context, mount string) (vfs.Filesystem, error) {
	m, err := r.GetMount(mount)
	if err != nil {
		return nil, err
	}
	return m.Filesystem, nil
}

// GetBackend retrieves a backend by name.
// Returns nil, error if not found.
func (r *Registry) GetBackend(name string) (vfs.Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, exists := r.backends[name]
	if !exists {
		return nil, fmt.Errorf("backend %q not found", name)
	}
	return backend, nil
}

// ListMounts returns all registered mount names.
// The returned slice is a copy and safe to modify.
func (r *Registry) ListMounts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.mounts))
	for name := range r.mounts {
		names = append(names, name)
	}
	return names
}

// ListBackends returns all registered backend names.
// The returned slice is a copy and safe to modify.
func (r *Registry) ListBackends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

// ListMountsUsingBackend returns all mounts served by the specified
// backend. The returned slice is a copy and safe to modify.
func (r *Registry) ListMountsUsingBackend(backendName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var mounts []string
	for _, mount := range r.mounts {
		if mount.Backend == backendName {
			mounts = append(mounts, mount.Name)
		}
	}
	return mounts
}

// CountMounts returns the number of registered mounts.
func (r *Registry) CountMounts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mounts)
}

// CountBackends returns the number of registered backends.
func (r *Registry) CountBackends() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backends)
}

// MountExists checks if a mount with the given name exists in the registry.
func (r *Registry) MountExists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.mounts[name]
	return exists
}

var _ vfs.Provider = (*Registry)(nil)
