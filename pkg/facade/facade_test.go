package facade

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/registry"
	"github.com/marmos91/scopefs/pkg/scopedpath"
	"github.com/marmos91/scopefs/pkg/store/memory"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// newTestService builds a service with a writable "docs" mount and a
// read-only "archive" mount, both in memory.
func newTestService(t *testing.T) *Service {
	t.Helper()

	reg := registry.NewRegistry()
	require.NoError(t, reg.RegisterBackend("mem", memory.NewBackend()))

	ctx := context.Background()
	require.NoError(t, reg.AddMount(ctx, &registry.MountConfig{Name: "docs", Backend: "mem"}))
	require.NoError(t, reg.AddMount(ctx, &registry.MountConfig{Name: "archive", Backend: "mem", ReadOnly: true}))

	return NewService(reg)
}

func putFile(t *testing.T, svc *Service, mount, path, content string) {
	t.Helper()
	_, err := svc.Put(context.Background(), mount, path, strings.NewReader(content))
	require.NoError(t, err)
}

// seedMount writes directly through the mount's filesystem, bypassing the
// read-only gate. Used to populate read-only mounts.
func seedMount(t *testing.T, svc *Service, mount, path, content string) {
	t.Helper()

	m, err := svc.registry.GetMount(mount)
	require.NoError(t, err)

	p, err := scopedpath.New(path)
	require.NoError(t, err)

	w, err := m.Filesystem.Create(context.Background(), p)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestStat(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "report.txt", "forty-two")

	info, err := svc.Stat(context.Background(), "docs", "report.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(9), info.Size)
	assert.False(t, info.IsDir)
}

func TestStatUnknownMount(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Stat(context.Background(), "nope", "anything.txt")
	assert.True(t, vfs.IsNotFound(err))
}

func TestTraversalPathIsNotFound(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "real.txt", "x")

	for _, raw := range []string{"../real.txt", "a/../../real.txt", "..", "a\\b"} {
		_, err := svc.Stat(context.Background(), "docs", raw)
		assert.True(t, vfs.IsNotFound(err), "path %q must resolve to not found", raw)
	}
}

func TestOpenWholeFile(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "hello.txt", "hello world")

	dl, err := svc.Open(context.Background(), "docs", "hello.txt", "")
	require.NoError(t, err)
	defer dl.Body.Close()

	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))

	assert.Nil(t, dl.Range)
	assert.Equal(t, "hello.txt", dl.Filename)
	assert.Contains(t, dl.ContentType, "text/plain")
	assert.Regexp(t, `^"\d+-\d+"$`, dl.ETag)
	assert.Equal(t, int64(11), dl.Info.Size)
}

func TestOpenRange(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "alphabet.bin", "abcdefghijklmnopqrstuvwxyz")

	dl, err := svc.Open(context.Background(), "docs", "alphabet.bin", "bytes=10-19")
	require.NoError(t, err)
	defer dl.Body.Close()

	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "klmnopqrst", string(body))

	require.NotNil(t, dl.Range)
	assert.Equal(t, int64(10), dl.Range.Start)
	assert.Equal(t, int64(19), dl.Range.End)
	assert.Equal(t, int64(26), dl.Range.Total)
}

func TestOpenSuffixRange(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "tail.txt", "0123456789")

	dl, err := svc.Open(context.Background(), "docs", "tail.txt", "bytes=-3")
	require.NoError(t, err)
	defer dl.Body.Close()

	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "789", string(body))
}

func TestOpenUnsatisfiableRange(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "small.txt", "tiny")

	_, err := svc.Open(context.Background(), "docs", "small.txt", "bytes=100-")
	assert.ErrorIs(t, err, vfs.ErrRangeNotSatisfiable)

	_, err = svc.Open(context.Background(), "docs", "small.txt", "bytes=0-1,2-3")
	assert.ErrorIs(t, err, vfs.ErrRangeNotSatisfiable)
}

func TestOpenMalformedRangeServesWholeFile(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "whole.txt", "complete")

	dl, err := svc.Open(context.Background(), "docs", "whole.txt", "bytes=oops")
	require.NoError(t, err)
	defer dl.Body.Close()

	assert.Nil(t, dl.Range)
	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "complete", string(body))
}

func TestOpenDirectoryIsNotFound(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.MkDir(context.Background(), "docs", "folder"))

	_, err := svc.Open(context.Background(), "docs", "folder", "")
	assert.True(t, vfs.IsNotFound(err))
}

func TestOpenUnknownExtension(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "blob.zzzqq", "???")

	dl, err := svc.Open(context.Background(), "docs", "blob.zzzqq", "")
	require.NoError(t, err)
	defer dl.Body.Close()

	assert.Empty(t, dl.ContentType)
}

func TestList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.MkDir(ctx, "docs", "projects"))
	putFile(t, svc, "docs", "projects/zeta.txt", "z")
	putFile(t, svc, "docs", "projects/alpha.txt", "a")
	require.NoError(t, svc.MkDir(ctx, "docs", "projects/sub"))

	entries, err := svc.List(ctx, "docs", "projects/")
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, []Entry{
		{Name: "alpha.txt", Collection: false},
		{Name: "sub", Collection: true},
		{Name: "zeta.txt", Collection: false},
	}, entries)
}

func TestListRoot(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "top.txt", "t")

	entries, err := svc.List(context.Background(), "docs", "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "top.txt", entries[0].Name)
}

func TestPutCreateAndOverwrite(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Put(ctx, "docs", "note.md", strings.NewReader("v1"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Put(ctx, "docs", "note.md", strings.NewReader("v2"))
	require.NoError(t, err)
	assert.False(t, created)

	dl, err := svc.Open(ctx, "docs", "note.md", "")
	require.NoError(t, err)
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	assert.Equal(t, "v2", string(body))
}

func TestPutOnCollection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.MkDir(ctx, "docs", "folder"))

	_, err := svc.Put(ctx, "docs", "folder", strings.NewReader("nope"))
	assert.True(t, vfs.IsConflict(err))
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	putFile(t, svc, "docs", "doomed.txt", "x")

	require.NoError(t, svc.Delete(ctx, "docs", "doomed.txt"))

	_, err := svc.Stat(ctx, "docs", "doomed.txt")
	assert.True(t, vfs.IsNotFound(err))
}

func TestCopySemantics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	putFile(t, svc, "docs", "src.txt", "payload")

	existed, err := svc.Copy(ctx, "docs", "src.txt", "dst.txt", false)
	require.NoError(t, err)
	assert.False(t, existed)

	// Second copy without overwrite trips on the existing destination.
	_, err = svc.Copy(ctx, "docs", "src.txt", "dst.txt", false)
	assert.True(t, vfs.IsConflict(err))

	existed, err = svc.Copy(ctx, "docs", "src.txt", "dst.txt", true)
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestMoveSemantics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	putFile(t, svc, "docs", "here.txt", "moving")

	existed, err := svc.Move(ctx, "docs", "here.txt", "there.txt", false)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = svc.Stat(ctx, "docs", "here.txt")
	assert.True(t, vfs.IsNotFound(err))

	info, err := svc.Stat(ctx, "docs", "there.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.Size)
}

func TestMoveTraversalDestination(t *testing.T) {
	svc := newTestService(t)
	putFile(t, svc, "docs", "src.txt", "x")

	_, err := svc.Move(context.Background(), "docs", "src.txt", "../escape.txt", false)
	assert.True(t, vfs.IsNotFound(err))
}

func TestReadOnlyMount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedMount(t, svc, "archive", "history.txt", "immutable")

	// Reads pass.
	dl, err := svc.Open(ctx, "archive", "history.txt", "")
	require.NoError(t, err)
	body, _ := io.ReadAll(dl.Body)
	require.NoError(t, dl.Body.Close())
	assert.Equal(t, "immutable", string(body))

	// Every mutation is rejected before touching storage.
	_, err = svc.Put(ctx, "archive", "new.txt", strings.NewReader("x"))
	assert.True(t, vfs.IsReadOnly(err))

	assert.True(t, vfs.IsReadOnly(svc.MkDir(ctx, "archive", "dir")))
	assert.True(t, vfs.IsReadOnly(svc.Delete(ctx, "archive", "history.txt")))

	_, err = svc.Copy(ctx, "archive", "history.txt", "copy.txt", false)
	assert.True(t, vfs.IsReadOnly(err))

	_, err = svc.Move(ctx, "archive", "history.txt", "moved.txt", false)
	assert.True(t, vfs.IsReadOnly(err))

	// Nothing changed.
	_, err = svc.Stat(ctx, "archive", "history.txt")
	require.NoError(t, err)
}

func TestMounts(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, []string{"archive", "docs"}, svc.Mounts())
}
