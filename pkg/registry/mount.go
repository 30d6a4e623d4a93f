package registry

import "github.com/marmos91/scopefs/pkg/vfs"

// Mount represents a configured mount that binds together:
// - A mount name (the first path segment clients address)
// - A filesystem resolved through a storage backend at startup
// - Per-mount options (read-only)
//
// Multiple mounts can be served by the same backend; each one is rooted in
// its own directory and cannot observe the others.
type Mount struct {
	Name       string
	Backend    string // Name of the storage backend
	Filesystem vfs.Filesystem
	ReadOnly   bool
}

// MountConfig contains all configuration needed to create a mount.
type MountConfig struct {
	Name     string
	Backend  string
	Dir      string // Directory under the backend root; defaults to Name
	ReadOnly bool
}
