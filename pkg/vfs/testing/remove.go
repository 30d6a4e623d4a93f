package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/vfs"
)

// RunRemoveTests executes all deletion tests
func (suite *FilesystemTestSuite) RunRemoveTests(t *testing.T) {
	t.Run("File", suite.testRemoveFile)
	t.Run("EmptyDirectory", suite.testRemoveEmptyDirectory)
	t.Run("DirectoryRecursive", suite.testRemoveDirectoryRecursive)
	t.Run("ErrorNotFound", suite.testRemoveErrorNotFound)
	t.Run("SiblingSurvives", suite.testRemoveSiblingSurvives)
}

func (suite *FilesystemTestSuite) testRemoveFile(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "victim.txt", []byte("x"))

	require.NoError(t, fs.Remove(context.Background(), mustPath(t, "victim.txt")))

	_, err := fs.Stat(context.Background(), mustPath(t, "victim.txt"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testRemoveEmptyDirectory(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "hollow")

	require.NoError(t, fs.Remove(context.Background(), mustPath(t, "hollow")))

	_, err := fs.Stat(context.Background(), mustPath(t, "hollow"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testRemoveDirectoryRecursive(t *testing.T) {
	fs := suite.NewFS()

	// Setup: a populated tree
	mkdir(t, fs, "tree")
	mkdir(t, fs, "tree/branch")
	writeFile(t, fs, "tree/leaf.txt", []byte("l"))
	writeFile(t, fs, "tree/branch/twig.txt", []byte("t"))

	// Action: delete the root of the tree
	require.NoError(t, fs.Remove(context.Background(), mustPath(t, "tree")))

	// Assert: everything underneath is gone
	_, err := fs.Stat(context.Background(), mustPath(t, "tree"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
	_, err = fs.Stat(context.Background(), mustPath(t, "tree/branch/twig.txt"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testRemoveErrorNotFound(t *testing.T) {
	fs := suite.NewFS()

	err := fs.Remove(context.Background(), mustPath(t, "never-existed"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testRemoveSiblingSurvives(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "keep.txt", []byte("keep"))
	writeFile(t, fs, "drop.txt", []byte("drop"))

	require.NoError(t, fs.Remove(context.Background(), mustPath(t, "drop.txt")))

	require.Equal(t, []byte("keep"), readFile(t, fs, "keep.txt"))
}
