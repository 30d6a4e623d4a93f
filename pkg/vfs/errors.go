package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Error represents a domain error from filesystem operations.
//
// These are the errors adapters are allowed to translate for clients.
// Infrastructure detail (the wrapped OS error) is for logs only and must
// never reach a client response.
//
// Protocol handlers translate the Code to protocol-specific status codes;
// see ErrorCode for the mapping table.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the scoped path related to the error (if applicable)
	Path string

	// Err is the underlying cause, when there is one. Logged, never leaked.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a filesystem error.
//
// Protocol Mapping:
//   - ErrNotFound: HTTP 404 Not Found
//   - ErrConflict: HTTP 409 Conflict
//   - ErrReadOnly: HTTP 403 Forbidden
//   - ErrIO:       HTTP 500 Internal Server Error (generic body)
type ErrorCode int

const (
	// ErrNotFound indicates the requested file/directory/mount doesn't
	// exist. Containment violations also surface as ErrNotFound: a path
	// that cannot be scoped is indistinguishable from one that is absent.
	ErrNotFound ErrorCode = iota

	// ErrConflict indicates the operation collides with existing state:
	// destination exists and overwrite was not requested, directory already
	// present, copy source is a directory.
	ErrConflict

	// ErrReadOnly indicates a mutating operation on a read-only mount.
	ErrReadOnly

	// ErrIO indicates an unexpected storage failure. The cause is wrapped
	// for logging; clients only ever see the category.
	ErrIO
)

// String returns the category name for logging.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	case ErrReadOnly:
		return "read_only"
	case ErrIO:
		return "io"
	default:
		return "unknown"
	}
}

// NotFoundError creates an ErrNotFound error for the given path.
func NotFoundError(path string) *Error {
	return &Error{Code: ErrNotFound, Message: "not found", Path: path}
}

// ConflictError creates an ErrConflict error with a specific message.
func ConflictError(path, message string) *Error {
	return &Error{Code: ErrConflict, Message: message, Path: path}
}

// ReadOnlyError creates an ErrReadOnly error for the given mount.
func ReadOnlyError(mount string) *Error {
	return &Error{Code: ErrReadOnly, Message: fmt.Sprintf("mount %q is read-only", mount)}
}

// IOError creates an ErrIO error wrapping the underlying cause.
func IOError(path string, err error) *Error {
	return &Error{Code: ErrIO, Message: "i/o error", Path: path, Err: err}
}

// FromOS maps an OS-level filesystem error onto the taxonomy.
//
// Mapping:
//   - fs.ErrNotExist → ErrNotFound
//   - fs.ErrExist → ErrConflict
//   - anything else → ErrIO with the cause wrapped
//
// A nil error maps to nil so call sites can wrap returns directly.
func FromOS(path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist):
		return NotFoundError(path)
	case errors.Is(err, fs.ErrExist) || errors.Is(err, os.ErrExist):
		return ConflictError(path, "already exists")
	default:
		return IOError(path, err)
	}
}

// code extracts the ErrorCode from an error chain, or ErrIO when the error
// does not carry one (unknown failures are treated as infrastructure).
func code(err error) ErrorCode {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrIO
}

// IsNotFound reports whether err is an ErrNotFound domain error.
func IsNotFound(err error) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Code == ErrNotFound
}

// IsConflict reports whether err is an ErrConflict domain error.
func IsConflict(err error) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Code == ErrConflict
}

// IsReadOnly reports whether err is an ErrReadOnly domain error.
func IsReadOnly(err error) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Code == ErrReadOnly
}

// IsIO reports whether err is an infrastructure failure: either an explicit
// ErrIO domain error or an error that carries no domain code at all.
func IsIO(err error) bool {
	if err == nil {
		return false
	}
	return code(err) == ErrIO
}
