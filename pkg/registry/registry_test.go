package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/scopefs/pkg/store/memory"
	"github.com/marmos91/scopefs/pkg/vfs"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.RegisterBackend("mem", memory.NewBackend()))
	return reg
}

func TestRegisterBackend(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.RegisterBackend("mem", memory.NewBackend()))
	assert.Equal(t, 1, reg.CountBackends())

	assert.Error(t, reg.RegisterBackend("mem", memory.NewBackend()), "duplicate name must be rejected")
	assert.Error(t, reg.RegisterBackend("", memory.NewBackend()))
	assert.Error(t, reg.RegisterBackend("nil-backend", nil))
}

func TestAddMount(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.AddMount(ctx, &MountConfig{Name: "docs", Backend: "mem"}))
	assert.True(t, reg.MountExists("docs"))
	assert.Equal(t, 1, reg.CountMounts())

	mount, err := reg.GetMount("docs")
	require.NoError(t, err)
	assert.Equal(t, "mem", mount.Backend)
	assert.NotNil(t, mount.Filesystem)
	assert.False(t, mount.ReadOnly)
}

func TestAddMountErrors(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.AddMount(ctx, &MountConfig{Name: "docs", Backend: "mem"}))

	assert.Error(t, reg.AddMount(ctx, &MountConfig{Name: "docs", Backend: "mem"}), "duplicate mount")
	assert.Error(t, reg.AddMount(ctx, &MountConfig{Name: "media", Backend: "nope"}), "unknown backend")
	assert.Error(t, reg.AddMount(ctx, &MountConfig{Name: "", Backend: "mem"}))
}

func TestAddMountReadOnly(t *testing.T) {
	reg := newTestRegistry(t)

	require.NoError(t, reg.AddMount(context.Background(), &MountConfig{
		Name:     "archive",
		Backend:  "mem",
		ReadOnly: true,
	}))

	mount, err := reg.GetMount("archive")
	require.NoError(t, err)
	assert.True(t, mount.ReadOnly)
}

func TestGetFilesystemUnknownMount(t *testing.T) {
	reg := newTestRegistry(t)

	// Unknown mounts are a client error, not a provisioning trigger.
	_, err := reg.GetFilesystem(context.Background(), "stranger")
	assert.True(t, vfs.IsNotFound(err))
	assert.False(t, reg.MountExists("stranger"))
}

func TestRemoveMount(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.AddMount(context.Background(), &MountConfig{Name: "tmp", Backend: "mem"}))

	require.NoError(t, reg.RemoveMount("tmp"))
	assert.False(t, reg.MountExists("tmp"))
	assert.Error(t, reg.RemoveMount("tmp"))
}

func TestListMountsUsingBackend(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.RegisterBackend("other", memory.NewBackend()))

	ctx := context.Background()
	require.NoError(t, reg.AddMount(ctx, &MountConfig{Name: "a", Backend: "mem"}))
	require.NoError(t, reg.AddMount(ctx, &MountConfig{Name: "b", Backend: "mem"}))
	require.NoError(t, reg.AddMount(ctx, &MountConfig{Name: "c", Backend: "other"}))

	assert.ElementsMatch(t, []string{"a", "b"}, reg.ListMountsUsingBackend("mem"))
	assert.ElementsMatch(t, []string{"c"}, reg.ListMountsUsingBackend("other"))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, reg.ListMounts())
}
