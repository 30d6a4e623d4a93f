package testing

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/vfs"
)

// RunReadWriteTests executes all file content tests
func (suite *FilesystemTestSuite) RunReadWriteTests(t *testing.T) {
	t.Run("CreateAndReadBack", suite.testCreateAndReadBack)
	t.Run("CreateEmptyFile", suite.testCreateEmptyFile)
	t.Run("CreateTruncatesExisting", suite.testCreateTruncatesExisting)
	t.Run("CreateInSubdirectory", suite.testCreateInSubdirectory)
	t.Run("CreateErrorMissingParent", suite.testCreateErrorMissingParent)
	t.Run("OpenSeek", suite.testOpenSeek)
	t.Run("OpenErrorNotFound", suite.testOpenErrorNotFound)
	t.Run("OpenErrorDirectory", suite.testOpenErrorDirectory)
}

func (suite *FilesystemTestSuite) testCreateAndReadBack(t *testing.T) {
	fs := suite.NewFS()

	content := []byte("hello scoped world")
	writeFile(t, fs, "greeting.txt", content)

	require.Equal(t, content, readFile(t, fs, "greeting.txt"))
}

func (suite *FilesystemTestSuite) testCreateEmptyFile(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "empty.bin", nil)

	info, err := fs.Stat(context.Background(), mustPath(t, "empty.bin"))
	require.NoError(t, err)
	require.Zero(t, info.Size)
	require.Empty(t, readFile(t, fs, "empty.bin"))
}

func (suite *FilesystemTestSuite) testCreateTruncatesExisting(t *testing.T) {
	fs := suite.NewFS()

	// Setup: a longer first version
	writeFile(t, fs, "config.yaml", []byte("a much longer first version"))

	// Action: overwrite with shorter content
	writeFile(t, fs, "config.yaml", []byte("short"))

	// Assert: no tail of the old content survives
	require.Equal(t, []byte("short"), readFile(t, fs, "config.yaml"))
}

func (suite *FilesystemTestSuite) testCreateInSubdirectory(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "a")
	mkdir(t, fs, "a/b")

	writeFile(t, fs, "a/b/deep.txt", []byte("nested"))
	require.Equal(t, []byte("nested"), readFile(t, fs, "a/b/deep.txt"))
}

func (suite *FilesystemTestSuite) testCreateErrorMissingParent(t *testing.T) {
	fs := suite.NewFS()

	_, err := fs.Create(context.Background(), mustPath(t, "missing/file.txt"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testOpenSeek(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "alphabet.txt", []byte("abcdefghij"))

	f, err := fs.Open(context.Background(), mustPath(t, "alphabet.txt"))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(4, io.SeekStart)
	require.NoError(t, err)

	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, []byte("efghij"), rest)
}

func (suite *FilesystemTestSuite) testOpenErrorNotFound(t *testing.T) {
	fs := suite.NewFS()

	_, err := fs.Open(context.Background(), mustPath(t, "ghost.txt"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testOpenErrorDirectory(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "folder")

	// Directories have no byte content to stream.
	_, err := fs.Open(context.Background(), mustPath(t, "folder"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}
