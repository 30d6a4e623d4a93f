// Package scopedpath provides the mount-relative path type used by all
// filesystem operations.
//
// A ScopedPath is always interpreted relative to the root of a mount. It can
// never name anything outside that root: client input is validated at
// construction time, before any OS path is formed. Backends apply their own
// post-resolution containment check on top of this (defense in depth), but
// construction is the first gate.
package scopedpath

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTraversal is returned when a path contains dot segments ("." or
	// "..") that could be used to walk out of the mount scope.
	ErrTraversal = errors.New("path attempts to escape its scope")

	// ErrInvalidSegment is returned when a path contains bytes that have no
	// business in a scoped path (NUL, backslash separators).
	ErrInvalidSegment = errors.New("invalid path segment")
)

// ScopedPath is a validated path relative to a mount root.
//
// The stored form has no leading or trailing slashes; a trailing slash on the
// original input is remembered as the collection marker. The zero value is
// the mount root.
//
// ScopedPath is a small value type and is safe to copy and compare with ==.
type ScopedPath struct {
	// path holds the normalized form: slash-separated segments, no leading
	// or trailing slash. Empty means the mount root.
	path string

	// collection records whether the client named this path with a trailing
	// slash. The mount root is always a collection regardless of this flag.
	collection bool
}

// Root is the scoped path of the mount root itself.
var Root = ScopedPath{collection: true}

// New validates and normalizes a client-supplied path.
//
// Validation rules:
//   - NUL bytes and backslashes are rejected (ErrInvalidSegment)
//   - "." and ".." segments are rejected (ErrTraversal)
//   - empty segments ("a//b") are rejected (ErrInvalidSegment)
//   - one leading slash is ignored (every path is mount-relative)
//   - a trailing slash is trimmed and remembered as the collection marker
//
// Callers in the service layer report any construction error to clients as
// not-found: a path that cannot be scoped is indistinguishable from a path
// that does not exist.
func New(raw string) (ScopedPath, error) {
	if strings.IndexByte(raw, 0) >= 0 {
		return ScopedPath{}, fmt.Errorf("%w: NUL byte in path", ErrInvalidSegment)
	}
	if strings.IndexByte(raw, '\\') >= 0 {
		return ScopedPath{}, fmt.Errorf("%w: backslash in path", ErrInvalidSegment)
	}

	collection := strings.HasSuffix(raw, "/")

	// One leading slash and the trailing collection slash are presentation;
	// any other empty segment is an error, not something to repair.
	trimmed := strings.TrimSuffix(strings.TrimPrefix(raw, "/"), "/")
	if trimmed == "" {
		return Root, nil
	}

	segments := strings.Split(trimmed, "/")

	// Traversal outranks a doubled slash when both occur ("docs//..").
	for _, segment := range segments {
		if segment == "." || segment == ".." {
			return ScopedPath{}, fmt.Errorf("%w: segment %q", ErrTraversal, segment)
		}
	}
	for _, segment := range segments {
		if segment == "" {
			return ScopedPath{}, fmt.Errorf("%w: empty segment in %q", ErrInvalidSegment, raw)
		}
	}

	return ScopedPath{
		path:       strings.Join(segments, "/"),
		collection: collection,
	}, nil
}

// String returns the normalized mount-relative form: slash-separated
// segments with no leading or trailing slash, "" for the mount root.
func (p ScopedPath) String() string {
	return p.path
}

// IsRoot reports whether p names the mount root.
func (p ScopedPath) IsRoot() bool {
	return p.path == ""
}

// IsCollection reports whether the client named this path as a collection
// (trailing slash). The mount root is always a collection.
func (p ScopedPath) IsCollection() bool {
	return p.collection || p.path == ""
}

// JoinSegment returns p extended by one child segment, typically a directory
// entry name. Leading slashes on the segment are trimmed; a trailing slash
// marks the result as a collection. The empty segment returns p unchanged.
//
// The segment passes the same validation as construction input: dot
// segments, embedded separators, NUL bytes and backslashes are rejected, so
// a joined path can never reach outside the scope of its base.
func (p ScopedPath) JoinSegment(name string) (ScopedPath, error) {
	collection := strings.HasSuffix(name, "/")
	name = strings.Trim(name, "/")
	if name == "" {
		return p, nil
	}

	if strings.IndexByte(name, 0) >= 0 {
		return ScopedPath{}, fmt.Errorf("%w: NUL byte in segment", ErrInvalidSegment)
	}
	if strings.IndexByte(name, '\\') >= 0 {
		return ScopedPath{}, fmt.Errorf("%w: backslash in segment", ErrInvalidSegment)
	}
	if strings.IndexByte(name, '/') >= 0 {
		return ScopedPath{}, fmt.Errorf("%w: separator in segment %q", ErrInvalidSegment, name)
	}
	if name == "." || name == ".." {
		return ScopedPath{}, fmt.Errorf("%w: segment %q", ErrTraversal, name)
	}

	joined := name
	if p.path != "" {
		joined = p.path + "/" + name
	}

	return ScopedPath{path: joined, collection: collection}, nil
}

// Parent returns the scoped path one level up, and the mount root for
// top-level entries and the root itself. The parent is always a collection.
func (p ScopedPath) Parent() ScopedPath {
	idx := strings.LastIndexByte(p.path, '/')
	if idx < 0 {
		return Root
	}
	return ScopedPath{path: p.path[:idx], collection: true}
}

// FileName returns the final segment of the path, or "" for the mount root.
func (p ScopedPath) FileName() string {
	if idx := strings.LastIndexByte(p.path, '/'); idx >= 0 {
		return p.path[idx+1:]
	}
	return p.path
}

// FileExtension returns the part of the file name after its last dot, or ""
// when the file name has no dot.
func (p ScopedPath) FileExtension() string {
	name := p.FileName()
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return ""
}
