package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidylee/incubator-opendal/handle"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(handle.NewRegistry(logger), logger)

	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		MetricsAddr:              "",
		Log:                      logger,
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, handler)
	require.NoError(t, err)

	return srv.getRouter()
}

func doRequest(t *testing.T, router http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func constructOperator(t *testing.T, router http.Handler, scheme string, config map[string]string) uint64 {
	t.Helper()

	body, err := json.Marshal(ConstructRequest{Scheme: scheme, Config: config})
	require.NoError(t, err)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/operators", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp ConstructResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.Handle)
	require.Equal(t, scheme, resp.Scheme)
	return resp.Handle
}

func TestHandler_BlobLifecycle(t *testing.T) {
	router := newTestServer(t)
	h := constructOperator(t, router, "memory", map[string]string{"root": "./tmp"})
	base := fmt.Sprintf("/api/v1/operators/%d", h)

	// Write
	rec := doRequest(t, router, http.MethodPut, base+"/blob?path=greeting", []byte("hello world"))
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// Read back
	rec = doRequest(t, router, http.MethodGet, base+"/blob?path=greeting", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))

	// Stat
	rec = doRequest(t, router, http.MethodGet, base+"/stat?path=greeting", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stat StatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stat))
	assert.Equal(t, "greeting", stat.Path)
	assert.Equal(t, "file", stat.Mode)
	assert.Equal(t, int64(11), stat.Size)

	// List
	rec = doRequest(t, router, http.MethodGet, base+"/list", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"greeting"}, list.Entries)

	// Delete twice, both succeed
	rec = doRequest(t, router, http.MethodDelete, base+"/blob?path=greeting", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, router, http.MethodDelete, base+"/blob?path=greeting", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Gone now
	rec = doRequest(t, router, http.MethodGet, base+"/blob?path=greeting", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "not_found", errResp.Status)
}

func TestHandler_ConstructErrors(t *testing.T) {
	router := newTestServer(t)

	tests := []struct {
		name           string
		body           []byte
		expectedCode   int
		expectedStatus string
	}{
		{
			name:           "unknown scheme",
			body:           []byte(`{"scheme":"bogus","config":{}}`),
			expectedCode:   http.StatusBadRequest,
			expectedStatus: "unknown_scheme",
		},
		{
			name:           "invalid config",
			body:           []byte(`{"scheme":"memory","config":{"capacity":"-1"}}`),
			expectedCode:   http.StatusBadRequest,
			expectedStatus: "invalid_config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/operators", tt.body)
			require.Equal(t, tt.expectedCode, rec.Code)

			var errResp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, tt.expectedStatus, errResp.Status)
		})
	}

	rec := doRequest(t, router, http.MethodPost, "/api/v1/operators", []byte("not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ReleasedHandleIsGone(t *testing.T) {
	router := newTestServer(t)
	h := constructOperator(t, router, "memory", nil)
	base := fmt.Sprintf("/api/v1/operators/%d", h)

	rec := doRequest(t, router, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Second release and any operation on the dead handle report 410.
	rec = doRequest(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = doRequest(t, router, http.MethodGet, base+"/blob?path=x", nil)
	assert.Equal(t, http.StatusGone, rec.Code)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "invalid_handle", errResp.Status)
}

func TestHandler_MalformedHandle(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/operators/not-a-number/blob?path=x", nil)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestHandler_MissingPathParameter(t *testing.T) {
	router := newTestServer(t)
	h := constructOperator(t, router, "memory", nil)

	rec := doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/operators/%d/blob", h), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_HandlesAreIndependent(t *testing.T) {
	router := newTestServer(t)
	first := constructOperator(t, router, "memory", nil)
	second := constructOperator(t, router, "memory", nil)
	require.NotEqual(t, first, second)

	rec := doRequest(t, router, http.MethodPut,
		fmt.Sprintf("/api/v1/operators/%d/blob?path=blob", first), []byte("one"))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet,
		fmt.Sprintf("/api/v1/operators/%d/blob?path=blob", second), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_HealthEndpoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(handle.NewRegistry(logger), logger)

	srv, err := New(&HTTPServerConfig{
		ListenAddr:    "127.0.0.1:0",
		Log:           logger,
		DrainDuration: time.Millisecond,
	}, handler)
	require.NoError(t, err)
	router := srv.getRouter()

	rec := doRequest(t, router, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/drain", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/undrain", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
