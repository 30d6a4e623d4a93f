// Package memory implements volatile in-memory mount storage.
//
// Contents live in a go-billy memfs tree and disappear when the process
// exits. Useful for tests and for scratch mounts that must never touch
// disk.
package memory

import (
	"context"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/marmos91/scopefs/pkg/scopedpath"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// Backend keeps every mount in one shared in-memory tree, with each mount
// chrooted into its own subdirectory.
type Backend struct {
	fs billy.Filesystem
}

func NewBackend() *Backend {
	return &Backend{fs: memfs.New()}
}

// Mount provisions dir inside the in-memory tree and returns a filesystem
// scoped to it. Since memory starts empty, declared mount directories are
// created here rather than required to pre-exist.
func (b *Backend) Mount(ctx context.Context, dir string) (vfs.Filesystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return nil, vfs.FromOS(dir, err)
	}

	scoped, err := b.fs.Chroot(dir)
	if err != nil {
		return nil, vfs.FromOS(dir, err)
	}
	return &Filesystem{fs: scoped}, nil
}

// Filesystem implements vfs.Filesystem on a chrooted billy tree.
//
// billy's chroot keeps every operation inside the mount directory, so the
// scoped-path validation done at construction is the only other containment
// layer needed here.
type Filesystem struct {
	fs billy.Filesystem
}

func (f *Filesystem) Stat(ctx context.Context, path scopedpath.ScopedPath) (vfs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return vfs.FileInfo{}, err
	}

	info, err := f.fs.Stat(path.String())
	if err != nil {
		return vfs.FileInfo{}, vfs.FromOS(path.String(), err)
	}

	size := info.Size()
	if info.IsDir() {
		size = 0
	}
	return vfs.FileInfo{
		Size:     size,
		Modified: info.ModTime(),
		Created:  info.ModTime(),
		IsDir:    info.IsDir(),
	}, nil
}

func (f *Filesystem) Open(ctx context.Context, path scopedpath.ScopedPath) (vfs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := f.fs.Stat(path.String())
	if err != nil {
		return nil, vfs.FromOS(path.String(), err)
	}
	if info.IsDir() {
		return nil, vfs.NotFoundError(path.String())
	}

	file, err := f.fs.Open(path.String())
	if err != nil {
		return nil, vfs.FromOS(path.String(), err)
	}
	return file, nil
}

func (f *Filesystem) Remove(ctx context.Context, path scopedpath.ScopedPath) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := f.fs.Stat(path.String())
	if err != nil {
		return vfs.FromOS(path.String(), err)
	}

	if info.IsDir() {
		return vfs.FromOS(path.String(), util.RemoveAll(f.fs, path.String()))
	}
	return vfs.FromOS(path.String(), f.fs.Remove(path.String()))
}

func (f *Filesystem) ReadDir(ctx context.Context, path scopedpath.ScopedPath) ([]scopedpath.ScopedPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := f.fs.Stat(path.String())
	if err != nil {
		return nil, vfs.FromOS(path.String(), err)
	}
	if !info.IsDir() {
		// A file has no children. Listing it is not an error.
		return []scopedpath.ScopedPath{}, nil
	}

	entries, err := f.fs.ReadDir(path.String())
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

// Mkdir creates a single directory level. billy only offers MkdirAll, so
// the stricter contract (existing path or missing parent must fail) is
// checked explicitly first.
func (f *Filesystem) Mkdir(ctx context.Context, path scopedpath.ScopedPath) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := f.fs.Stat(path.String()); err == nil {
		return vfs.ConflictError(path.String(), "path already exists")
	}
	if err := f.requireParent(path); err != nil {
		return err
	}

	return vfs.FromOS(path.String(), f.fs.MkdirAll(path.String(), 0755))
}

func (f *Filesystem) Create(ctx context.Context, path scopedpath.ScopedPath) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// memfs creates missing parents implicitly, which the contract forbids.
	if err := f.requireParent(path); err != nil {
		return nil, err
	}

	file, err := f.fs.Create(path.String())
	if err != nil {
		return nil, vfs.FromOS(path.String(), err)
	}
	return file, nil
}

func (f *Filesystem) Copy(ctx context.Context, from, to scopedpath.ScopedPath, overwrite bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := f.fs.Stat(from.String())
	if err != nil {
		return false, vfs.FromOS(from.String(), err)
	}
	if info.IsDir() {
		return false, vfs.ConflictError(from.String(), "cannot copy a directory")
	}

	existed, err := f.checkDestination(to, overwrite)
	if err != nil {
		return false, err
	}
	if err := f.requireParent(to); err != nil {
		return false, err
	}

	src, err := f.fs.Open(from.String())
	if err != nil {
		return false, vfs.FromOS(from.String(), err)
	}
	defer src.Close()

	dst, err := f.fs.Create(to.String())
	if err != nil {
		return false, vfs.FromOS(to.String(), err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return false, vfs.IOError(to.String(), err)
	}
	if err := dst.Close(); err != nil {
		return false, vfs.IOError(to.String(), err)
	}

	return existed, nil
}

func (f *Filesystem) Rename(ctx context.Context, from, to scopedpath.ScopedPath, overwrite bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := f.fs.Stat(from.String()); err != nil {
		return false, vfs.FromOS(from.String(), err)
	}

	existed, err := f.checkDestination(to, overwrite)
	if err != nil {
		return false, err
	}
	if err := f.requireParent(to); err != nil {
		return false, err
	}
	if existed {
		if err := util.RemoveAll(f.fs, to.String()); err != nil {
			return false, vfs.FromOS(to.String(), err)
		}
	}

	if err := f.fs.Rename(from.String(), to.String()); err != nil {
		return false, vfs.FromOS(from.String(), err)
	}
	return existed, nil
}

// requireParent fails with NotFound unless the parent directory of path
// already exists.
func (f *Filesystem) requireParent(path scopedpath.ScopedPath) error {
	parent := path.Parent()
	if parent.IsRoot() {
		return nil
	}
	if _, err := f.fs.Stat(parent.String()); err != nil {
		return vfs.FromOS(parent.String(), err)
	}
	return nil
}

func (f *Filesystem) checkDestination(to scopedpath.ScopedPath, overwrite bool) (bool, error) {
	if _, err := f.fs.Stat(to.String()); err != nil {
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
