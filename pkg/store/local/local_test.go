package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/scopedpath"
	"github.com/marmos91/scopefs/pkg/vfs"
	vfstesting "github.com/marmos91/scopefs/pkg/vfs/testing"
)

// TestLocalFilesystem runs the complete Filesystem test suite against the
// disk-backed implementation.
func TestLocalFilesystem(t *testing.T) {
	suite := &vfstesting.FilesystemTestSuite{
		NewFS: func() vfs.Filesystem {
			base := t.TempDir()
			backend, err := NewBackend(base)
			require.NoError(t, err)
			require.NoError(t, os.Mkdir(filepath.Join(base, "mount"), 0755))

			fs, err := backend.Mount(context.Background(), "mount")
			require.NoError(t, err)
			return fs
		},
	}

	suite.Run(t)
}

func TestMountMissingDirectory(t *testing.T) {
	backend, err := NewBackend(t.TempDir())
	require.NoError(t, err)

	_, err = backend.Mount(context.Background(), "ghost")
	require.True(t, vfs.IsNotFound(err))
}

func TestMountRootIsFile(t *testing.T) {
	base := t.TempDir()
	backend, err := NewBackend(base)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(base, "flat"), []byte("x"), 0644))

	_, err = backend.Mount(context.Background(), "flat")
	require.True(t, vfs.IsConflict(err))
}

func TestMountNameTraversalContained(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "base")
	require.NoError(t, os.Mkdir(base, 0755))

	// A sibling of the base directory that a traversal would reach.
	require.NoError(t, os.Mkdir(filepath.Join(tmp, "outside"), 0755))

	backend, err := NewBackend(base)
	require.NoError(t, err)

	// The traversal is clamped inside base, where no such directory exists.
	_, err = backend.Mount(context.Background(), "../outside")
	require.True(t, vfs.IsNotFound(err))
}

func TestSymlinkInsideMountFollowed(t *testing.T) {
	base := t.TempDir()
	mountDir := filepath.Join(base, "mount")
	require.NoError(t, os.Mkdir(mountDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mountDir, "real.txt"), []byte("linked"), 0644))
	require.NoError(t, os.Symlink("real.txt", filepath.Join(mountDir, "alias")))

	backend, err := NewBackend(base)
	require.NoError(t, err)
	fs, err := backend.Mount(context.Background(), "mount")
	require.NoError(t, err)

	path, err := scopedpath.New("alias")
	require.NoError(t, err)

	f, err := fs.Open(context.Background(), path)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, []byte("linked"), data)
}

func TestSymlinkEscapeContained(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "base")
	mountDir := filepath.Join(base, "mount")
	require.NoError(t, os.MkdirAll(mountDir, 0755))

	// A secret outside the mount that a naive join would expose.
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "secret.txt"), []byte("secret"), 0644))
	require.NoError(t, os.Symlink("../../../secret.txt", filepath.Join(mountDir, "leak")))

	backend, err := NewBackend(base)
	require.NoError(t, err)
	fs, err := backend.Mount(context.Background(), "mount")
	require.NoError(t, err)

	path, err := scopedpath.New("leak")
	require.NoError(t, err)

	// The link target resolves inside the mount root, where nothing exists.
	_, err = fs.Open(context.Background(), path)
	require.True(t, vfs.IsNotFound(err))

	_, err = fs.Stat(context.Background(), path)
	require.True(t, vfs.IsNotFound(err))
}
