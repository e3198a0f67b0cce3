package backends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func newBadgerBackend(t *testing.T) *BadgerBackend {
	t.Helper()
	backend, err := NewBadgerBackend(interfaces.Config{"in_memory": "true"}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close(context.Background()) })
	return backend
}

func TestBadgerBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newBadgerBackend(t)

	require.NoError(t, backend.Write(ctx, "greeting", []byte("hello world")))

	data, err := backend.Read(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)

	stat, err := backend.Stat(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, int64(11), stat.Size)
	assert.Equal(t, interfaces.EntryModeFile, stat.Mode)

	require.NoError(t, backend.Delete(ctx, "greeting"))
	require.NoError(t, backend.Delete(ctx, "greeting"))

	_, err = backend.Read(ctx, "greeting")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestBadgerBackend_List(t *testing.T) {
	ctx := context.Background()
	backend := newBadgerBackend(t)

	for _, path := range []string{"logs/b", "logs/a", "data/c"} {
		require.NoError(t, backend.Write(ctx, path, []byte("x")))
	}

	paths, err := backend.List(ctx, "logs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/a", "logs/b"}, paths)
}

func TestBadgerBackend_DirRequired(t *testing.T) {
	_, err := NewBadgerBackend(interfaces.Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)
}

func TestBadgerBackend_UseAfterClose(t *testing.T) {
	ctx := context.Background()
	backend, err := NewBadgerBackend(interfaces.Config{"in_memory": "true"}, testLogger())
	require.NoError(t, err)

	require.NoError(t, backend.Write(ctx, "blob", []byte("x")))
	require.NoError(t, backend.Close(ctx))

	_, err = backend.Read(ctx, "blob")
	assert.ErrorIs(t, err, interfaces.ErrUsedAfterRelease)

	err = backend.Write(ctx, "blob", []byte("y"))
	assert.ErrorIs(t, err, interfaces.ErrUsedAfterRelease)
}
