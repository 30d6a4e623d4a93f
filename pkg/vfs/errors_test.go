package vfs

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := NotFoundError("docs/report.pdf")
	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, err.Error(), "docs/report.pdf")

	wrapped := IOError("docs", errors.New("disk on fire"))
	assert.Contains(t, wrapped.Error(), "disk on fire")
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := IOError("a/b", cause)
	assert.ErrorIs(t, err, cause)

	assert.Nil(t, NotFoundError("x").Unwrap())
}

func TestFromOS(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not exist", fs.ErrNotExist, ErrNotFound},
		{"exist", fs.ErrExist, ErrConflict},
		{"other", errors.New("i/o timeout"), ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromOS("some/path", tt.err)
			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Code)
			assert.Equal(t, "some/path", verr.Path)
		})
	}

	assert.NoError(t, FromOS("p", nil))
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFoundError("p")))
	assert.False(t, IsNotFound(ConflictError("p", "exists")))

	assert.True(t, IsConflict(ConflictError("p", "exists")))
	assert.True(t, IsReadOnly(ReadOnlyError("media")))
	assert.True(t, IsIO(IOError("p", errors.New("x"))))

	// Unknown errors count as IO so they surface as server faults.
	assert.True(t, IsIO(errors.New("mystery")))
	assert.False(t, IsNotFound(errors.New("mystery")))
	assert.False(t, IsNotFound(nil))
}
