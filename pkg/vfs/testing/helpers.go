package testing

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/scopedpath"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// mustPath parses a scoped path or fails the test.
func mustPath(t *testing.T, raw string) scopedpath.ScopedPath {
	t.Helper()
	p, err := scopedpath.New(raw)
	require.NoError(t, err)
	return p
}

// writeFile creates a file with the given content, failing the test on any
// error.
func writeFile(t *testing.T, fs vfs.Filesystem, path string, content []byte) {
	t.Helper()
	w, err := fs.Create(context.Background(), mustPath(t, path))
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

// readFile opens a file and returns its full content.
func readFile(t *testing.T, fs vfs.Filesystem, path string) []byte {
	t.Helper()
	f, err := fs.Open(context.Background(), mustPath(t, path))
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}

// mkdir creates a directory, failing the test on any error.
func mkdir(t *testing.T, fs vfs.Filesystem, path string) {
	t.Helper()
	require.NoError(t, fs.Mkdir(context.Background(), mustPath(t, path)))
}

// AssertErrorCode checks that an error carries the expected taxonomy code.
func AssertErrorCode(t *testing.T, expected vfs.ErrorCode, err error, msgAndArgs ...any) bool {
	t.Helper()
	if err == nil {
		return assert.Fail(t, "Expected an error but got nil", msgAndArgs...)
	}

	var verr *vfs.Error
	if assert.ErrorAs(t, err, &verr, msgAndArgs...) {
		return assert.Equal(t, expected, verr.Code, msgAndArgs...)
	}
	return false
}
