package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/vfs"
)

// RunCopyTests executes all copy tests
func (suite *FilesystemTestSuite) RunCopyTests(t *testing.T) {
	t.Run("File", suite.testCopyFile)
	t.Run("IntoSubdirectory", suite.testCopyIntoSubdirectory)
	t.Run("OverwriteExisting", suite.testCopyOverwriteExisting)
	t.Run("ErrorExistsWithoutOverwrite", suite.testCopyErrorExistsWithoutOverwrite)
	t.Run("ErrorSourceNotFound", suite.testCopyErrorSourceNotFound)
	t.Run("ErrorSourceDirectory", suite.testCopyErrorSourceDirectory)
	t.Run("ErrorMissingDestinationParent", suite.testCopyErrorMissingDestinationParent)
}

// RunRenameTests executes all rename tests
func (suite *FilesystemTestSuite) RunRenameTests(t *testing.T) {
	t.Run("File", suite.testRenameFile)
	t.Run("Directory", suite.testRenameDirectory)
	t.Run("OverwriteExisting", suite.testRenameOverwriteExisting)
	t.Run("ErrorExistsWithoutOverwrite", suite.testRenameErrorExistsWithoutOverwrite)
	t.Run("ErrorSourceNotFound", suite.testRenameErrorSourceNotFound)
}

// ============================================================================
// Copy Tests
// ============================================================================

func (suite *FilesystemTestSuite) testCopyFile(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "orig.txt", []byte("payload"))

	existed, err := fs.Copy(context.Background(), mustPath(t, "orig.txt"), mustPath(t, "copy.txt"), false)
	require.NoError(t, err)
	require.False(t, existed)

	// Both files present with identical content.
	require.Equal(t, []byte("payload"), readFile(t, fs, "orig.txt"))
	require.Equal(t, []byte("payload"), readFile(t, fs, "copy.txt"))
}

func (suite *FilesystemTestSuite) testCopyIntoSubdirectory(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "src.txt", []byte("data"))
	mkdir(t, fs, "dst")

	existed, err := fs.Copy(context.Background(), mustPath(t, "src.txt"), mustPath(t, "dst/src.txt"), false)
	require.NoError(t, err)
	require.False(t, existed)
	require.Equal(t, []byte("data"), readFile(t, fs, "dst/src.txt"))
}

func (suite *FilesystemTestSuite) testCopyOverwriteExisting(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "new.txt", []byte("new content"))
	writeFile(t, fs, "old.txt", []byte("old content"))

	existed, err := fs.Copy(context.Background(), mustPath(t, "new.txt"), mustPath(t, "old.txt"), true)
	require.NoError(t, err)
	require.True(t, existed)
	require.Equal(t, []byte("new content"), readFile(t, fs, "old.txt"))
}

func (suite *FilesystemTestSuite) testCopyErrorExistsWithoutOverwrite(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "a.txt", []byte("a"))
	writeFile(t, fs, "b.txt", []byte("b"))

	_, err := fs.Copy(context.Background(), mustPath(t, "a.txt"), mustPath(t, "b.txt"), false)
	AssertErrorCode(t, vfs.ErrConflict, err)

	// Destination untouched.
	require.Equal(t, []byte("b"), readFile(t, fs, "b.txt"))
}

func (suite *FilesystemTestSuite) testCopyErrorSourceNotFound(t *testing.T) {
	fs := suite.NewFS()

	_, err := fs.Copy(context.Background(), mustPath(t, "void.txt"), mustPath(t, "out.txt"), false)
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testCopyErrorSourceDirectory(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "dir")

	// Only regular files can be copied.
	_, err := fs.Copy(context.Background(), mustPath(t, "dir"), mustPath(t, "dir2"), false)
	AssertErrorCode(t, vfs.ErrConflict, err)
}

func (suite *FilesystemTestSuite) testCopyErrorMissingDestinationParent(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "src.txt", []byte("x"))

	_, err := fs.Copy(context.Background(), mustPath(t, "src.txt"), mustPath(t, "absent/dst.txt"), false)
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

// ============================================================================
// Rename Tests
// ============================================================================

func (suite *FilesystemTestSuite) testRenameFile(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "before.txt", []byte("moved"))

	existed, err := fs.Rename(context.Background(), mustPath(t, "before.txt"), mustPath(t, "after.txt"), false)
	require.NoError(t, err)
	require.False(t, existed)

	// Source is gone, destination holds the content.
	_, err = fs.Stat(context.Background(), mustPath(t, "before.txt"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
	require.Equal(t, []byte("moved"), readFile(t, fs, "after.txt"))
}

func (suite *FilesystemTestSuite) testRenameDirectory(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "olddir")
	writeFile(t, fs, "olddir/inner.txt", []byte("inner"))

	existed, err := fs.Rename(context.Background(), mustPath(t, "olddir"), mustPath(t, "newdir"), false)
	require.NoError(t, err)
	require.False(t, existed)

	// Hierarchy moved intact.
	_, err = fs.Stat(context.Background(), mustPath(t, "olddir"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
	require.Equal(t, []byte("inner"), readFile(t, fs, "newdir/inner.txt"))
}

func (suite *FilesystemTestSuite) testRenameOverwriteExisting(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "winner.txt", []byte("winner"))
	writeFile(t, fs, "loser.txt", []byte("loser"))

	existed, err := fs.Rename(context.Background(), mustPath(t, "winner.txt"), mustPath(t, "loser.txt"), true)
	require.NoError(t, err)
	require.True(t, existed)
	require.Equal(t, []byte("winner"), readFile(t, fs, "loser.txt"))
}

func (suite *FilesystemTestSuite) testRenameErrorExistsWithoutOverwrite(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "a.txt", []byte("a"))
	writeFile(t, fs, "b.txt", []byte("b"))

	_, err := fs.Rename(context.Background(), mustPath(t, "a.txt"), mustPath(t, "b.txt"), false)
	AssertErrorCode(t, vfs.ErrConflict, err)

	// Neither side was disturbed.
	require.Equal(t, []byte("a"), readFile(t, fs, "a.txt"))
	require.Equal(t, []byte("b"), readFile(t, fs, "b.txt"))
}

func (suite *FilesystemTestSuite) testRenameErrorSourceNotFound(t *testing.T) {
	fs := suite.NewFS()

	_, err := fs.Rename(context.Background(), mustPath(t, "phantom"), mustPath(t, "real"), false)
	AssertErrorCode(t, vfs.ErrNotFound, err)
}
