package testing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/scopedpath"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// RunStatTests executes all metadata snapshot tests
func (suite *FilesystemTestSuite) RunStatTests(t *testing.T) {
	t.Run("File", suite.testStatFile)
	t.Run("Directory", suite.testStatDirectory)
	t.Run("Root", suite.testStatRoot)
	t.Run("ErrorNotFound", suite.testStatErrorNotFound)
	t.Run("ETagChangesWithContent", suite.testStatETagChangesWithContent)
}

func (suite *FilesystemTestSuite) testStatFile(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "report.pdf", []byte("twelve bytes"))

	info, err := fs.Stat(context.Background(), mustPath(t, "report.pdf"))
	require.NoError(t, err)

	require.False(t, info.IsDir)
	require.Equal(t, int64(12), info.Size)
	require.False(t, info.Modified.IsZero())
	require.False(t, info.Created.IsZero())
	require.WithinDuration(t, time.Now(), info.Modified, time.Minute)
}

func (suite *FilesystemTestSuite) testStatDirectory(t *testing.T) {
	fs := suite.NewFS()
	mkdir(t, fs, "photos")

	info, err := fs.Stat(context.Background(), mustPath(t, "photos"))
	require.NoError(t, err)
	require.True(t, info.IsDir)
}

func (suite *FilesystemTestSuite) testStatRoot(t *testing.T) {
	fs := suite.NewFS()

	info, err := fs.Stat(context.Background(), scopedpath.Root)
	require.NoError(t, err)
	require.True(t, info.IsDir)
}

func (suite *FilesystemTestSuite) testStatErrorNotFound(t *testing.T) {
	fs := suite.NewFS()

	_, err := fs.Stat(context.Background(), mustPath(t, "no/such/file.txt"))
	AssertErrorCode(t, vfs.ErrNotFound, err)
}

func (suite *FilesystemTestSuite) testStatETagChangesWithContent(t *testing.T) {
	fs := suite.NewFS()
	writeFile(t, fs, "notes.md", []byte("v1"))

	before, err := fs.Stat(context.Background(), mustPath(t, "notes.md"))
	require.NoError(t, err)

	writeFile(t, fs, "notes.md", []byte("version two"))

	after, err := fs.Stat(context.Background(), mustPath(t, "notes.md"))
	require.NoError(t, err)

	require.NotEqual(t, before.ETag(), after.ETag())
}
