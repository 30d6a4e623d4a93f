// Package local implements mount storage on the local filesystem.
//
// A Backend owns one base directory; every mount lives in its own
// subdirectory underneath it. Containment is enforced twice: scoped paths
// are validated at construction, and every resolution through this package
// is re-verified against the mount root after symlinks are taken into
// account.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/marmos91/scopefs/internal/logger"
	"github.com/marmos91/scopefs/pkg/scopedpath"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// Backend hands out filesystems rooted in subdirectories of a single base
// directory.
type Backend struct {
	base string
}

// NewBackend creates a disk backend rooted at base. The base directory is
// created if it does not exist; mount directories underneath it are not.
func NewBackend(base string) (*Backend, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Backend{base: abs}, nil
}

// Mount returns a filesystem rooted at base/dir.
//
// The directory must already exist and must resolve inside the base
// directory even if dir smuggles in traversal segments. A missing directory
// is reported as not found so misconfigured mounts surface at startup.
func (b *Backend) Mount(ctx context.Context, dir string) (vfs.Filesystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := securejoin.SecureJoin(b.base, dir)
	if err != nil {
		return nil, fmt.Errorf("resolve mount root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, vfs.FromOS(dir, err)
	}
	if !info.IsDir() {
		return nil, vfs.ConflictError(dir, "mount root is not a directory")
	}

	return &Filesystem{root: root}, nil
}

// Filesystem implements vfs.Filesystem on a directory tree on disk.
//
// Thread safety:
// Operations map directly to OS calls, which are safe to issue concurrently.
// Concurrent writes to the same path follow whatever ordering the OS gives
// them.
type Filesystem struct {
	root string
}

// resolve turns a scoped path into an absolute location under the mount
// root. SecureJoin resolves symlinks within root scope, so the result is
// contained even when a link points outside the mount; the prefix check
// behind it should therefore never fire, and firing is logged as a
// containment violation.
func (f *Filesystem) resolve(path scopedpath.ScopedPath) (string, error) {
	full, err := securejoin.SecureJoin(f.root, path.String())
	if err != nil {
		return "", vfs.IOError(path.String(), err)
	}

	if full != f.root && !strings.HasPrefix(full, f.root+string(os.PathSeparator)) {
		logger.Error("containment violation: %q resolved outside mount root %q", path.String(), f.root)
		return "", vfs.NotFoundError(path.String())
	}

	return full, nil
}

func (f *Filesystem) Stat(ctx context.Context, path scopedpath.ScopedPath) (vfs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return vfs.FileInfo{}, err
	}

	full, err := f.resolve(path)
	if err != nil {
		return vfs.FileInfo{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return vfs.FileInfo{}, vfs.FromOS(path.String(), err)
	}
	return fileInfo(info), nil
}

func (f *Filesystem) Open(ctx context.Context, path scopedpath.ScopedPath) (vfs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		return nil, vfs.FromOS(path.String(), err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, vfs.FromOS(path.String(), err)
	}
	if info.IsDir() {
		file.Close()
		return nil, vfs.NotFoundError(path.String())
	}

	return file, nil
}

func (f *Filesystem) Remove(ctx context.Context, path scopedpath.ScopedPath) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := f.resolve(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(full)
	if err != nil {
		return vfs.FromOS(path.String(), err)
	}

	if info.IsDir() {
		return vfs.FromOS(path.String(), os.RemoveAll(full))
	}
	return vfs.FromOS(path.String(), os.Remove(full))
}

func (f *Filesystem) ReadDir(ctx context.Context, path scopedpath.ScopedPath) ([]scopedpath.ScopedPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, vfs.FromOS(path.String(), err)
	}
	if !info.IsDir() {
		// A file has no children. Listing it is not an error.
		return []scopedpath.ScopedPath{}, nil
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, vfs.FromOS(path.String(), err)
	}

	children := make([]scopedpath.ScopedPath, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		child, err := path.JoinSegment(name)
		if err != nil {
			return nil, vfs.IOError(path.String(), err)
		}
		children = append(children, child)
	}
	return children, nil
}

func (f *Filesystem) Mkdir(ctx context.Context, path scopedpath.ScopedPath) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := f.resolve(path)
	if err != nil {
		return err
	}

	return vfs.FromOS(path.String(), os.Mkdir(full, 0755))
}

func (f *Filesystem) Create(ctx context.Context, path scopedpath.ScopedPath) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, vfs.FromOS(path.String(), err)
	}
	return file, nil
}

func (f *Filesystem) Copy(ctx context.Context, from, to scopedpath.ScopedPath, overwrite bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	src, err := f.resolve(from)
	if err != nil {
		return false, err
	}
	dst, err := f.resolve(to)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(src)
	if err != nil {
		return false, vfs.FromOS(from.String(), err)
	}
	if info.IsDir() {
		return false, vfs.ConflictError(from.String(), "cannot copy a directory")
	}

	existed, err := f.checkDestination(to, dst, overwrite)
	if err != nil {
		return false, err
	}

	in, err := os.Open(src)
	if err != nil {
		return false, vfs.FromOS(from.String(), err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return false, vfs.FromOS(to.String(), err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, vfs.IOError(to.String(), err)
	}
	if err := out.Close(); err != nil {
		return false, vfs.IOError(to.String(), err)
	}

	return existed, nil
}

func (f *Filesystem) Rename(ctx context.Context, from, to scopedpath.ScopedPath, overwrite bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	src, err := f.resolve(from)
	if err != nil {
		return false, err
	}
	dst, err := f.resolve(to)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(src); err != nil {
		return false, vfs.FromOS(from.String(), err)
	}

	existed, err := f.checkDestination(to, dst, overwrite)
	if err != nil {
		return false, err
	}
	if existed {
		// os.Rename replaces files but not directories, so clear the
		// destination explicitly.
		if err := os.RemoveAll(dst); err != nil {
			return false, vfs.FromOS(to.String(), err)
		}
	}

	if err := os.Rename(src, dst); err != nil {
		return false, vfs.FromOS(from.String(), err)
	}
	return existed, nil
}

// checkDestination reports whether the destination already exists and
// enforces the overwrite flag. A missing destination parent surfaces later
// as NotFound from the actual OS call.
func (f *Filesystem) checkDestination(to scopedpath.ScopedPath, dst string, overwrite bool) (bool, error) {
	if _, err := os.Stat(dst); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, vfs.FromOS(to.String(), err)
	}
	if !overwrite {
		return true, vfs.ConflictError(to.String(), "destination already exists")
	}
	return true, nil
}

func fileInfo(info os.FileInfo) vfs.FileInfo {
	size := info.Size()
	if info.IsDir() {
		size = 0
	}
	return vfs.FileInfo{
		Size:     size,
		Modified: info.ModTime(),
		// Creation time is not portably available, so Modified stands in.
		Created: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}
