package boundary

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidylee/incubator-opendal/handle"
	"github.com/kidylee/incubator-opendal/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectConfig(t *testing.T) {
	tests := []struct {
		name     string
		pairs    []string
		expected interfaces.Config
	}{
		{
			name:     "empty",
			pairs:    nil,
			expected: interfaces.Config{},
		},
		{
			name:     "single pair",
			pairs:    []string{"root", "./tmp"},
			expected: interfaces.Config{"root": "./tmp"},
		},
		{
			name:     "multiple pairs",
			pairs:    []string{"root", "./tmp", "capacity", "1024"},
			expected: interfaces.Config{"root": "./tmp", "capacity": "1024"},
		},
		{
			name:     "duplicate key resolves last write wins",
			pairs:    []string{"root", "./a", "root", "./b"},
			expected: interfaces.Config{"root": "./b"},
		},
		{
			name:     "dangling key is dropped",
			pairs:    []string{"root", "./tmp", "orphan"},
			expected: interfaces.Config{"root": "./tmp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CollectConfig(tt.pairs))
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Status
	}{
		{"nil", nil, StatusOK},
		{"unknown scheme", interfaces.ErrUnknownScheme, StatusUnknownScheme},
		{"invalid config", interfaces.ErrInvalidConfig, StatusInvalidConfig},
		{"not found", interfaces.ErrNotFound, StatusNotFound},
		{"permission denied", interfaces.ErrPermissionDenied, StatusPermissionDenied},
		{"quota exceeded", interfaces.ErrQuotaExceeded, StatusQuotaExceeded},
		{"used after release", interfaces.ErrUsedAfterRelease, StatusUsedAfterRelease},
		{"invalid handle", interfaces.ErrInvalidHandle, StatusInvalidHandle},
		{"anything else", errors.New("connection reset"), StatusIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusOf(tt.err))
		})
	}
}

func TestSurface_FullLifecycle(t *testing.T) {
	s := NewSurface(testLogger())

	h, status := s.Construct("memory", []string{"root", "./tmp"})
	require.Equal(t, StatusOK, status)
	require.NotZero(t, h)

	status = s.Write(h, "greeting", []byte("hello world"))
	require.Equal(t, StatusOK, status)

	data, status := s.Read(h, "greeting")
	require.Equal(t, StatusOK, status)
	assert.Equal(t, []byte("hello world"), data)

	stat, status := s.Stat(h, "greeting")
	require.Equal(t, StatusOK, status)
	assert.Equal(t, int64(11), stat.Size)

	paths, status := s.List(h, "")
	require.Equal(t, StatusOK, status)
	assert.Equal(t, []string{"greeting"}, paths)

	status = s.Delete(h, "greeting")
	require.Equal(t, StatusOK, status)

	// Deleting again still succeeds.
	status = s.Delete(h, "greeting")
	require.Equal(t, StatusOK, status)

	status = s.Release(h)
	require.Equal(t, StatusOK, status)
}

func TestSurface_ConstructFailures(t *testing.T) {
	s := NewSurface(testLogger())

	h, status := s.Construct("bogus", nil)
	assert.Equal(t, StatusUnknownScheme, status)
	assert.Zero(t, h)
	assert.NotEmpty(t, s.LastError())

	h, status = s.Construct("memory", []string{"capacity", "-1"})
	assert.Equal(t, StatusInvalidConfig, status)
	assert.Zero(t, h)
}

func TestSurface_ReleasedHandleIsDead(t *testing.T) {
	s := NewSurface(testLogger())

	h, status := s.Construct("memory", nil)
	require.Equal(t, StatusOK, status)
	require.Equal(t, StatusOK, s.Release(h))

	// Every call on the dead token reports the lifecycle code, and a
	// second release does not tear anything down again.
	assert.Equal(t, StatusInvalidHandle, s.Release(h))
	assert.Equal(t, StatusInvalidHandle, s.Write(h, "blob", []byte("x")))

	_, status = s.Read(h, "blob")
	assert.Equal(t, StatusInvalidHandle, status)

	_, status = s.Stat(h, "blob")
	assert.Equal(t, StatusInvalidHandle, status)

	_, status = s.List(h, "")
	assert.Equal(t, StatusInvalidHandle, status)

	assert.Equal(t, StatusInvalidHandle, s.Delete(h, "blob"))
}

func TestSurface_HandlesAreIndependent(t *testing.T) {
	s := NewSurface(testLogger())

	first, status := s.Construct("memory", nil)
	require.Equal(t, StatusOK, status)
	second, status := s.Construct("memory", nil)
	require.Equal(t, StatusOK, status)
	assert.NotEqual(t, first, second)

	require.Equal(t, StatusOK, s.Write(first, "blob", []byte("one")))

	// Separate handles, separate backends.
	_, status = s.Read(second, "blob")
	assert.Equal(t, StatusNotFound, status)

	require.Equal(t, StatusOK, s.Release(first))

	data, status := s.Read(second, "blob")
	assert.Equal(t, StatusNotFound, status)
	assert.Nil(t, data)
}

func TestSurface_NeverIssuesZeroOrReusedHandles(t *testing.T) {
	s := NewSurface(testLogger())

	seen := make(map[handle.Handle]bool)
	for i := 0; i < 50; i++ {
		h, status := s.Construct("memory", nil)
		require.Equal(t, StatusOK, status)
		require.NotZero(t, h)
		require.False(t, seen[h])
		seen[h] = true
		require.Equal(t, StatusOK, s.Release(h))
	}
}

func TestSurface_LastError(t *testing.T) {
	s := NewSurface(testLogger())

	// Nothing failed yet.
	assert.Empty(t, s.LastError())

	h, status := s.Construct("memory", nil)
	require.Equal(t, StatusOK, status)

	_, status = s.Read(h, "missing")
	require.Equal(t, StatusNotFound, status)
	missingErr := s.LastError()
	assert.NotEmpty(t, missingErr)

	// Success leaves the slot untouched.
	require.Equal(t, StatusOK, s.Write(h, "blob", []byte("x")))
	assert.Equal(t, missingErr, s.LastError())

	// The next failure replaces it.
	_, status = s.Read(handle.Handle(9999), "blob")
	require.Equal(t, StatusInvalidHandle, status)
	assert.NotEqual(t, missingErr, s.LastError())
}
