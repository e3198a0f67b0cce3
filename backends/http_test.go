package backends

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func newHTTPFixture(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/blob.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Write([]byte("hello world"))
	})
	mux.HandleFunc("/secret.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPBackend_Read(t *testing.T) {
	ctx := context.Background()
	srv := newHTTPFixture(t)

	backend, err := NewHTTPBackend(interfaces.Config{"endpoint": srv.URL}, testLogger())
	require.NoError(t, err)
	defer backend.Close(ctx)

	data, err := backend.Read(ctx, "blob.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)

	// Leading slashes resolve to the same URL.
	data, err = backend.Read(ctx, "/blob.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)

	_, err = backend.Read(ctx, "missing.txt")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	_, err = backend.Read(ctx, "secret.txt")
	assert.ErrorIs(t, err, interfaces.ErrPermissionDenied)
}

func TestHTTPBackend_Stat(t *testing.T) {
	ctx := context.Background()
	srv := newHTTPFixture(t)

	backend, err := NewHTTPBackend(interfaces.Config{"endpoint": srv.URL, "timeout": "5s"}, testLogger())
	require.NoError(t, err)
	defer backend.Close(ctx)

	stat, err := backend.Stat(ctx, "blob.txt")
	require.NoError(t, err)
	assert.Equal(t, "blob.txt", stat.Path)
	assert.Equal(t, int64(11), stat.Size)
	assert.Equal(t, "text/plain", stat.ContentType)
	assert.False(t, stat.LastModified.IsZero())

	_, err = backend.Stat(ctx, "missing.txt")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestHTTPBackend_IsReadOnly(t *testing.T) {
	ctx := context.Background()
	srv := newHTTPFixture(t)

	backend, err := NewHTTPBackend(interfaces.Config{"endpoint": srv.URL}, testLogger())
	require.NoError(t, err)
	defer backend.Close(ctx)

	err = backend.Write(ctx, "blob.txt", []byte("x"))
	assert.ErrorIs(t, err, interfaces.ErrPermissionDenied)

	err = backend.Delete(ctx, "blob.txt")
	assert.ErrorIs(t, err, interfaces.ErrPermissionDenied)

	_, err = backend.List(ctx, "")
	assert.ErrorIs(t, err, interfaces.ErrPermissionDenied)
}

func TestHTTPBackend_EndpointRequired(t *testing.T) {
	_, err := NewHTTPBackend(interfaces.Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)

	_, err = NewHTTPBackend(interfaces.Config{"endpoint": "not a url"}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)
}
