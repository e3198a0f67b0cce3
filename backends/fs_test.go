package backends

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func TestFSBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFSBackend(interfaces.Config{"root": t.TempDir()}, testLogger())
	require.NoError(t, err)

	err = backend.Write(ctx, "nested/dir/blob.txt", []byte("hello world"))
	require.NoError(t, err)

	data, err := backend.Read(ctx, "nested/dir/blob.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)

	stat, err := backend.Stat(ctx, "nested/dir/blob.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(11), stat.Size)
	assert.Equal(t, interfaces.EntryModeFile, stat.Mode)
	assert.False(t, stat.LastModified.IsZero())

	require.NoError(t, backend.Delete(ctx, "nested/dir/blob.txt"))
	require.NoError(t, backend.Delete(ctx, "nested/dir/blob.txt"))

	_, err = backend.Read(ctx, "nested/dir/blob.txt")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestFSBackend_RootRequired(t *testing.T) {
	_, err := NewFSBackend(interfaces.Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)
}

func TestFSBackend_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does", "not", "exist")
	_, err := NewFSBackend(interfaces.Config{"root": root}, testLogger())
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFSBackend_PathEscapeRejected(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFSBackend(interfaces.Config{"root": t.TempDir()}, testLogger())
	require.NoError(t, err)

	_, err = backend.Read(ctx, "../outside")
	assert.ErrorIs(t, err, interfaces.ErrPermissionDenied)

	err = backend.Write(ctx, "../../etc/passwd", []byte("nope"))
	assert.ErrorIs(t, err, interfaces.ErrPermissionDenied)
}

func TestFSBackend_StatDirectory(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFSBackend(interfaces.Config{"root": t.TempDir()}, testLogger())
	require.NoError(t, err)

	require.NoError(t, backend.Write(ctx, "dir/blob", []byte("x")))

	stat, err := backend.Stat(ctx, "dir")
	require.NoError(t, err)
	assert.Equal(t, interfaces.EntryModeDir, stat.Mode)
	assert.True(t, stat.IsDir())
}

func TestFSBackend_List(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFSBackend(interfaces.Config{"root": t.TempDir()}, testLogger())
	require.NoError(t, err)

	for _, path := range []string{"logs/2024/a", "logs/2024/b", "data/c"} {
		require.NoError(t, backend.Write(ctx, path, []byte("x")))
	}

	paths, err := backend.List(ctx, "logs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/2024/a", "logs/2024/b"}, paths)
}
