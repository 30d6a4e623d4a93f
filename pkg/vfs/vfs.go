// Package vfs defines the filesystem abstraction every storage backend
// implements and every protocol adapter consumes.
//
// The model is deliberately small: whole files and directories inside one
// mount scope, addressed by scopedpath.ScopedPath. There are no file
// handles shared between requests, no handle pooling, and no metadata
// caching. Stat is a read-through snapshot, and reads open a fresh handle
// that the caller owns until Close.
//
// Error handling: implementations return *Error values from the taxonomy in
// errors.go. OS-level causes are wrapped for logging and never surfaced to
// clients.
package vfs

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/marmos91/scopefs/pkg/scopedpath"
)

// FileInfo is a read-only metadata snapshot taken at call time.
//
// Snapshots are not invalidated: by the time a caller inspects one, the
// underlying file may already have changed. Callers that need coherence
// between metadata and content must take both from the same operation
// (Download does this for reads).
type FileInfo struct {
	// Size is the file size in bytes. Zero for directories.
	Size int64

	// Modified is the last modification time.
	Modified time.Time

	// Created is the creation time where the platform exposes one, and
	// falls back to Modified otherwise. Best-effort: treat as advisory.
	Created time.Time

	// IsDir reports whether the entry is a directory.
	IsDir bool
}

// ETag derives a weak validator from the snapshot: size and modification
// time in milliseconds, quoted. Two snapshots with equal tags are almost
// certainly the same content.
func (i FileInfo) ETag() string {
	return fmt.Sprintf("%q", fmt.Sprintf("%d-%d", i.Size, i.Modified.UnixMilli()))
}

// File is a readable, seekable handle to a regular file.
//
// The caller owns the handle and must Close it on every exit path. Handles
// are not shared between requests and are not restartable once wrapped in a
// RangeReader.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Filesystem provides file operations within one mount scope.
//
// All paths are mount-relative scoped paths; implementations are
// responsible for containing every resolution inside their root, even in
// the presence of symlinks. A containment violation is reported as
// ErrNotFound and logged internally.
//
// Thread safety:
// Implementations must be safe for concurrent use. Concurrent writers to
// the same path follow last-writer-wins; no locking is provided.
type Filesystem interface {
	// Stat returns a metadata snapshot for the given path.
	// Missing path → ErrNotFound.
	Stat(ctx context.Context, path scopedpath.ScopedPath) (FileInfo, error)

	// Open opens a regular file for reading.
	// Directories and missing paths → ErrNotFound.
	Open(ctx context.Context, path scopedpath.ScopedPath) (File, error)

	// Remove deletes the entry at path: files are unlinked, directories are
	// removed together with their contents.
	// Missing path → ErrNotFound.
	Remove(ctx context.Context, path scopedpath.ScopedPath) error

	// ReadDir lists the children of a directory as scoped paths joined
	// onto path. Missing path → ErrNotFound; a regular file lists empty
	// rather than failing, so callers need no type probe before listing.
	ReadDir(ctx context.Context, path scopedpath.ScopedPath) ([]scopedpath.ScopedPath, error)

	// Mkdir creates a single directory level.
	// Missing parent → ErrNotFound; existing path → ErrConflict.
	Mkdir(ctx context.Context, path scopedpath.ScopedPath) error

	// Create creates or truncates a regular file and returns a writable
	// handle for sequential streaming. The caller must Close it to make the
	// write durable. Missing parent → ErrNotFound.
	Create(ctx context.Context, path scopedpath.ScopedPath) (io.WriteCloser, error)

	// Copy copies the regular file at from to to.
	//
	// When to exists and overwrite is false the copy fails with
	// ErrConflict. Copying a directory fails with ErrConflict. Returns
	// whether to existed before the operation, so protocol layers can
	// distinguish created from replaced.
	Copy(ctx context.Context, from, to scopedpath.ScopedPath, overwrite bool) (bool, error)

	// Rename moves the entry at from to to within the same mount, with the
	// same overwrite, error, and return contract as Copy. Directories can
	// be renamed.
	Rename(ctx context.Context, from, to scopedpath.ScopedPath, overwrite bool) (bool, error)
}

// Provider resolves mount names to their isolated filesystems.
//
// Unknown mounts → ErrNotFound. Providers never create mounts on demand:
// the mount table is fixed configuration, and a request for a mount that
// was never configured is a client error, not a provisioning trigger.
type Provider interface {
	GetFilesystem(ctx context.Context, mount string) (Filesystem, error)
}

// Backend creates mount-scoped filesystems out of a storage medium.
//
// A backend owns a larger namespace (a base directory on disk, an in-memory
// tree) and hands out Filesystem views rooted at directories within it.
// Mount is a configuration-time operation: request handling never reaches
// it, and no backend creates directories in response to client traffic.
// Whether a missing mount directory is an error or gets provisioned during
// Mount is backend policy.
type Backend interface {
	Mount(ctx context.Context, dir string) (Filesystem, error)
}
