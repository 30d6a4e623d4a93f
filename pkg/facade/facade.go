// Package facade implements the protocol-agnostic service layer.
//
// Every protocol adapter drives the same Service: adapters translate their
// wire format to these operations and back, and contain no filesystem logic
// of their own. The Service owns mount resolution, scoped-path
// construction, read-only enforcement, and the wiring of range requests to
// bounded streams.
package facade

import (
	"context"
	"io"
	"mime"
	"sort"

	"github.com/marmos91/scopefs/internal/logger"
	"github.com/marmos91/scopefs/pkg/registry"
	"github.com/marmos91/scopefs/pkg/scopedpath"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// Service is the shared file service behind all protocol adapters.
//
// Thread safety:
// Service is stateless beyond the registry reference and safe for
// concurrent use.
type Service struct {
	registry *registry.Registry
}

func NewService(reg *registry.Registry) *Service {
	return &Service{registry: reg}
}

// Download is everything an adapter needs to serve a read: the open
// bounded stream plus the metadata headers are derived from.
//
// The caller owns Body and must Close it on every path, including when it
// writes nothing.
type Download struct {
	Info        vfs.FileInfo
	Body        *vfs.RangeReader
	Range       *vfs.ContentRange // nil when the whole file is served
	ContentType string            // empty when the extension is unrecognized
	Filename    string
	ETag        string
}

// Entry is one child in a directory listing.
type Entry struct {
	Name       string `json:"name"`
	Collection bool   `json:"collection"`
}

// resolve looks up the mount and validates the client path. Unknown mounts
// and unscopeable paths are both not found: the caller learns nothing about
// why.
func (s *Service) resolve(mount, raw string) (*registry.Mount, scopedpath.ScopedPath, error) {
	m, err := s.registry.GetMount(mount)
	if err != nil {
		return nil, scopedpath.ScopedPath{}, err
	}

	path, err := scopedpath.New(raw)
	if err != nil {
		logger.Error("mount %q: rejected path %q: %v", mount, raw, err)
		return nil, scopedpath.ScopedPath{}, vfs.NotFoundError(raw)
	}

	return m, path, nil
}

// resolveWritable is resolve plus the read-only gate for mutating
// operations.
func (s *Service) resolveWritable(mount, raw string) (*registry.Mount, scopedpath.ScopedPath, error) {
	m, path, err := s.resolve(mount, raw)
	if err != nil {
		return nil, scopedpath.ScopedPath{}, err
	}
	if m.ReadOnly {
		return nil, scopedpath.ScopedPath{}, vfs.ReadOnlyError(mount)
	}
	return m, path, nil
}

// Stat returns the metadata snapshot for a path.
func (s *Service) Stat(ctx context.Context, mount, raw string) (vfs.FileInfo, error) {
	m, path, err := s.resolve(mount, raw)
	if err != nil {
		return vfs.FileInfo{}, err
	}
	return m.Filesystem.Stat(ctx, path)
}

// Open prepares a download of a regular file, optionally narrowed by a
// Range request header.
//
// The returned Download carries an open handle: the caller must Close
// Body. A range that names no servable bytes fails with
// vfs.ErrRangeNotSatisfiable before any handle is opened.
func (s *Service) Open(ctx context.Context, mount, raw, rangeHeader string) (*Download, error) {
	m, path, err := s.resolve(mount, raw)
	if err != nil {
		return nil, err
	}

	info, err := m.Filesystem.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if info.IsDir {
		return nil, vfs.NotFoundError(raw)
	}

	contentRange, err := vfs.ParseRange(rangeHeader, info.Size)
	if err != nil {
		return nil, err
	}

	offset, length := int64(0), info.Size
	if contentRange != nil {
		offset, length = contentRange.Start, contentRange.Length()
	}

	file, err := m.Filesystem.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	body, err := vfs.NewRangeReader(file, offset, length)
	if err != nil {
		return nil, vfs.IOError(raw, err)
	}

	return &Download{
		Info:        info,
		Body:        body,
		Range:       contentRange,
		ContentType: contentTypeFor(path),
		Filename:    path.FileName(),
		ETag:        info.ETag(),
	}, nil
}

// List returns the children of a directory, sorted by name.
func (s *Service) List(ctx context.Context, mount, raw string) ([]Entry, error) {
	m, path, err := s.resolve(mount, raw)
	if err != nil {
		return nil, err
	}

	children, err := m.Filesystem.ReadDir(ctx, path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		entries = append(entries, Entry{
			Name:       child.FileName(),
			Collection: child.IsCollection(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

// Put streams body into a new or replaced file and reports whether the file
// was created. Bytes are consumed sequentially in bounded chunks; nothing
// is buffered beyond the copy window.
func (s *Service) Put(ctx context.Context, mount, raw string, body io.Reader) (created bool, err error) {
	m, path, err := s.resolveWritable(mount, raw)
	if err != nil {
		return false, err
	}

	existed := false
	if info, err := m.Filesystem.Stat(ctx, path); err == nil {
		if info.IsDir {
			return false, vfs.ConflictError(raw, "path is a collection")
		}
		existed = true
	}

	w, err := m.Filesystem.Create(ctx, path)
	if err != nil {
		return false, err
	}

	if _, err := io.CopyBuffer(w, body, make([]byte, vfs.ChunkSize)); err != nil {
		w.Close()
		return false, vfs.IOError(raw, err)
	}
	if err := w.Close(); err != nil {
		return false, vfs.IOError(raw, err)
	}

	logger.Debug("mount %q: put %q (created=%t)", mount, raw, !existed)
	return !existed, nil
}

// MkDir creates a single directory level.
func (s *Service) MkDir(ctx context.Context, mount, raw string) error {
	m, path, err := s.resolveWritable(mount, raw)
	if err != nil {
		return err
	}
	return m.Filesystem.Mkdir(ctx, path)
}

// Delete removes a file or a directory tree.
func (s *Service) Delete(ctx context.Context, mount, raw string) error {
	m, path, err := s.resolveWritable(mount, raw)
	if err != nil {
		return err
	}
	return m.Filesystem.Remove(ctx, path)
}

// Copy duplicates a regular file within one mount and reports whether the
// destination existed beforehand.
func (s *Service) Copy(ctx context.Context, mount, fromRaw, toRaw string, overwrite bool) (existed bool, err error) {
	m, from, to, err := s.resolvePair(mount, fromRaw, toRaw)
	if err != nil {
		return false, err
	}
	return m.Filesystem.Copy(ctx, from, to, overwrite)
}

// Move renames a file or directory within one mount and reports whether
// the destination existed beforehand.
func (s *Service) Move(ctx context.Context, mount, fromRaw, toRaw string, overwrite bool) (existed bool, err error) {
	m, from, to, err := s.resolvePair(mount, fromRaw, toRaw)
	if err != nil {
		return false, err
	}
	return m.Filesystem.Rename(ctx, from, to, overwrite)
}

func (s *Service) resolvePair(mount, fromRaw, toRaw string) (*registry.Mount, scopedpath.ScopedPath, scopedpath.ScopedPath, error) {
	m, from, err := s.resolveWritable(mount, fromRaw)
	if err != nil {
		return nil, scopedpath.ScopedPath{}, scopedpath.ScopedPath{}, err
	}

	to, err := scopedpath.New(toRaw)
	if err != nil {
		logger.Error("mount %q: rejected destination %q: %v", mount, toRaw, err)
		return nil, scopedpath.ScopedPath{}, scopedpath.ScopedPath{}, vfs.NotFoundError(toRaw)
	}

	return m, from, to, nil
}

// Mounts lists the configured mount names, sorted.
func (s *Service) Mounts() []string {
	names := s.registry.ListMounts()
	sort.Strings(names)
	return names
}

// contentTypeFor derives a media type from the file extension alone.
// Content is never sniffed.
func contentTypeFor(path scopedpath.ScopedPath) string {
	ext := path.FileExtension()
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension("." + ext)
}
