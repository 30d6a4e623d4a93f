package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/scopedpath"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// RunDirectoryTests executes all directory operation tests
func (suite *FilesystemTestSuite) RunDirectoryTests(t *testing.T) {
	t.Run("MkdirAndStat", suite.testMkdirAndStat)
	t.Run("MkdirNested", suite.testMkdirNested)
	t.Run("MkdirErrorExists", suite.testMkdirErrorExists)
	t.Run("MkdirErrorExistingFile", suite.testMkdirErrorExistingFile)
	t.Run("MkdirErrorMissingParent", suite.testMkdirErrorMissingParent)
	t.Run("ReadDirListsChildren", suite.testReadDirListsChildren)
	t.Run("ReadDirEmpty", suite.testReadDirEmpty)
	t.Run("ReadDirErrorNotFound", suite.testReadDirErrorNotFound)
	t.Run("ReadDirOnFileIsEmpty", suite.testReadDirOnFileIsEmpty)
}

func (suite *FilesystemTestSuite) testMkdirAndStat(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "uploads")

	info, err := fs.Stat(context.Background(), mustPath(t, "uploads"))
	require.NoError(t, err)
	require.True(t, info.IsDir)
}

func (suite *FilesystemTestSuite) testMkdirNested(t *testing.T) {
	fs := suite.NewFS()

	// One level at a time: Mkdir is not MkdirAll.
	mkdir(t, fs, "a")
	mkdir(t, fs, "a/b")
	mkdir(t, fs, "a/b/c")

	info, err := fs.Stat(context.Background(), mustPath(t, "a/b/c"))
	require.NoError(t, err)
	require.True(t, info.IsDir)
}

func (suite *FilesystemTestSuite) testMkdirErrorExists(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "docs")

	err := fs.Mkdir(context.Background(), mustPath(t, "docs"))
	AssertErrorCode(t, vfs.ErrConflict, err)
}

func (suite *FilesystemTestSuite) testMkdirErrorExistingFile(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "taken", []byte("x"))

	err := fs.Mkdir(context.Background(), mustPath(t, "taken"))
	AssertErrorCode(t, vfs.ErrConflict, err)
}

func (suite *FilesystemTestSuite) testMkdirErrorMissingParent(t *testing.T) {
	fs := suite.NewFS()

	err := fs.Mkdir(context.Background(), mustPath(t, "no/parent/here"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testReadDirListsChildren(t *testing.T) {
	fs := suite.NewFS()

	// Setup: a directory with a file and a subdirectory
	mkdir(t, fs, "mix")
	writeFile(t, fs, "mix/a.txt", []byte("a"))
	mkdir(t, fs, "mix/sub")

	entries, err := fs.ReadDir(context.Background(), mustPath(t, "mix/"))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Assert: entries are full scoped paths, directories marked as
	// collections.
	byName := map[string]scopedpath.ScopedPath{}
	for _, e := range entries {
		byName[e.String()] = e
	}

	require.Contains(t, byName, "mix/a.txt")
	require.False(t, byName["mix/a.txt"].IsCollection())

	require.Contains(t, byName, "mix/sub")
	require.True(t, byName["mix/sub"].IsCollection())
}

func (suite *FilesystemTestSuite) testReadDirEmpty(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "vacant")

	entries, err := fs.ReadDir(context.Background(), mustPath(t, "vacant"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func (suite *FilesystemTestSuite) testReadDirErrorNotFound(t *testing.T) {
	fs := suite.NewFS()

	_, err := fs.ReadDir(context.Background(), mustPath(t, "nowhere"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testReadDirOnFileIsEmpty(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "flat.txt", []byte("not a directory"))

	entries, err := fs.ReadDir(context.Background(), mustPath(t, "flat.txt"))
	require.NoError(t, err)
	require.Empty(t, entries)
}
