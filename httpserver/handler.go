package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kidylee/incubator-opendal/boundary"
	"github.com/kidylee/incubator-opendal/handle"
	"github.com/kidylee/incubator-opendal/interfaces"
	"github.com/kidylee/incubator-opendal/metrics"
	"github.com/kidylee/incubator-opendal/operator"
)

// maxBodySize caps blob uploads and construct requests (32MB).
const maxBodySize = 32 * 1024 * 1024

// ConstructRequest is the body of POST /api/v1/operators.
type ConstructRequest struct {
	Scheme string            `json:"scheme"`
	Config map[string]string `json:"config"`
}

// ConstructResponse returns the token the client uses for every
// subsequent call on the operator.
type ConstructResponse struct {
	Handle uint64 `json:"handle"`
	Scheme string `json:"scheme"`
}

// StatResponse is the JSON shape of a stat result.
type StatResponse struct {
	Path         string     `json:"path"`
	Mode         string     `json:"mode"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	ContentType  string     `json:"content_type,omitempty"`
}

// ListResponse is the JSON shape of a list result.
type ListResponse struct {
	Entries []string `json:"entries"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Handler processes HTTP requests for the storage gateway. Each
// constructed operator is tracked by the handle registry until the
// client releases it or the server shuts down.
type Handler struct {
	handles *handle.Registry
	log     *slog.Logger
}

// NewHandler creates a new HTTP request handler backed by the given
// handle registry.
func NewHandler(handles *handle.Registry, log *slog.Logger) *Handler {
	return &Handler{
		handles: handles,
		log:     log,
	}
}

// ReleaseAll releases every operator still tracked by the registry.
func (h *Handler) ReleaseAll(ctx context.Context) {
	h.handles.ReleaseAll(ctx)
}

// HandleConstruct builds a backend from the request's scheme and config
// and returns a handle for it.
//
// URL format: POST /api/v1/operators
func (h *Handler) HandleConstruct(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req ConstructRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.Error("Failed to parse construct request", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	op, err := operator.New(req.Scheme, interfaces.Config(req.Config), h.log)
	if err != nil {
		h.log.Error("Operator construction failed", "err", err, slog.String("scheme", req.Scheme))
		h.writeError(w, "construct", req.Scheme, err)
		return
	}

	hdl := h.handles.Issue(op)
	metrics.OperatorsLive.Inc()
	metrics.OperationsTotal.WithLabelValues("construct", req.Scheme, boundary.StatusOK.String()).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ConstructResponse{Handle: uint64(hdl), Scheme: op.Scheme()})
}

// HandleRelease tears down the operator behind a handle. The handle is
// invalid afterwards and never reused.
//
// URL format: DELETE /api/v1/operators/{handle}
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	hdl, ok := h.parseHandle(w, r)
	if !ok {
		return
	}

	if err := h.handles.Release(r.Context(), hdl); err != nil {
		h.writeError(w, "release", "unknown", err)
		return
	}

	metrics.OperatorsLive.Dec()
	metrics.OperationsTotal.WithLabelValues("release", "unknown", boundary.StatusOK.String()).Inc()
	w.WriteHeader(http.StatusNoContent)
}

// HandleRead streams the blob at the requested path.
//
// URL format: GET /api/v1/operators/{handle}/blob?path=<path>
func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	op, path, ok := h.resolveOp(w, r, "read")
	if !ok {
		return
	}

	data, err := op.Read(r.Context(), path)
	if err != nil {
		h.writeError(w, "read", op.Scheme(), err)
		return
	}
	h.countOp("read", op.Scheme(), nil)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandleWrite stores the request body at the requested path.
//
// URL format: PUT /api/v1/operators/{handle}/blob?path=<path>
func (h *Handler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	op, path, ok := h.resolveOp(w, r, "write")
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	err = op.Write(r.Context(), path, data)
	if err != nil {
		h.writeError(w, "write", op.Scheme(), err)
		return
	}
	h.countOp("write", op.Scheme(), nil)

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes the blob at the requested path. Deleting an
// absent path succeeds.
//
// URL format: DELETE /api/v1/operators/{handle}/blob?path=<path>
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	op, path, ok := h.resolveOp(w, r, "delete")
	if !ok {
		return
	}

	err := op.Delete(r.Context(), path)
	if err != nil {
		h.writeError(w, "delete", op.Scheme(), err)
		return
	}
	h.countOp("delete", op.Scheme(), nil)

	w.WriteHeader(http.StatusNoContent)
}

// HandleStat returns metadata for the entry at the requested path.
//
// URL format: GET /api/v1/operators/{handle}/stat?path=<path>
func (h *Handler) HandleStat(w http.ResponseWriter, r *http.Request) {
	op, path, ok := h.resolveOp(w, r, "stat")
	if !ok {
		return
	}

	st, err := op.Stat(r.Context(), path)
	if err != nil {
		h.writeError(w, "stat", op.Scheme(), err)
		return
	}
	h.countOp("stat", op.Scheme(), nil)

	resp := StatResponse{
		Path:        st.Path,
		Mode:        st.Mode.String(),
		Size:        st.Size,
		ContentType: st.ContentType,
	}
	if !st.LastModified.IsZero() {
		resp.LastModified = &st.LastModified
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleList returns the sorted paths under the requested prefix.
//
// URL format: GET /api/v1/operators/{handle}/list?prefix=<prefix>
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	hdl, ok := h.parseHandle(w, r)
	if !ok {
		return
	}

	op, err := h.handles.Resolve(hdl)
	if err != nil {
		h.writeError(w, "list", "unknown", err)
		return
	}

	entries, err := op.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		h.writeError(w, "list", op.Scheme(), err)
		return
	}
	h.countOp("list", op.Scheme(), nil)

	if entries == nil {
		entries = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Entries: entries})
}

// parseHandle extracts the handle token from the URL path. A malformed
// token gets the same treatment as an unknown one.
func (h *Handler) parseHandle(w http.ResponseWriter, r *http.Request) (handle.Handle, bool) {
	raw := r.PathValue("handle")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.log.Error("Invalid handle in URL", "err", err, slog.String("handle", raw))
		h.writeError(w, "resolve", "unknown", fmt.Errorf("handle %q: %w", raw, interfaces.ErrInvalidHandle))
		return 0, false
	}
	return handle.Handle(n), true
}

// resolveOp parses the handle and path query parameter and resolves the
// operator, writing the error response itself on failure.
func (h *Handler) resolveOp(w http.ResponseWriter, r *http.Request, opName string) (*operator.Operator, string, bool) {
	hdl, ok := h.parseHandle(w, r)
	if !ok {
		return nil, "", false
	}

	op, err := h.handles.Resolve(hdl)
	if err != nil {
		h.writeError(w, opName, "unknown", err)
		return nil, "", false
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "Missing path query parameter", http.StatusBadRequest)
		return nil, "", false
	}

	return op, path, true
}

func (h *Handler) countOp(opName, scheme string, err error) {
	metrics.OperationsTotal.WithLabelValues(opName, scheme, boundary.StatusOf(err).String()).Inc()
}

// writeError maps a storage error onto an HTTP status and a JSON error
// body carrying the gateway status name.
func (h *Handler) writeError(w http.ResponseWriter, opName, scheme string, err error) {
	status := boundary.StatusOf(err)
	if status != boundary.StatusOK {
		metrics.OperationsTotal.WithLabelValues(opName, scheme, status.String()).Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusFor(err))
	json.NewEncoder(w).Encode(errorResponse{Status: status.String(), Error: err.Error()})
}

func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, interfaces.ErrInvalidHandle), errors.Is(err, interfaces.ErrUsedAfterRelease):
		return http.StatusGone
	case errors.Is(err, interfaces.ErrUnknownScheme), errors.Is(err, interfaces.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
