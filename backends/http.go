package backends

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("http", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewHTTPBackend(cfg, log)
	})
}

// HTTPOptions configures the read-only HTTP backend.
type HTTPOptions struct {
	// Endpoint is the base URL paths are resolved against.
	Endpoint string `mapstructure:"endpoint" validate:"required,url"`

	// Timeout bounds each request; defaults to 30s.
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPBackend reads content from a plain HTTP(S) server. It is read-only:
// write, delete and list are refused, since a generic HTTP endpoint
// offers no mutation or enumeration contract.
type HTTPBackend struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

// NewHTTPBackend creates a read-only HTTP backend for the configured
// endpoint.
func NewHTTPBackend(cfg interfaces.Config, log *slog.Logger) (*HTTPBackend, error) {
	var opts HTTPOptions
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}

	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidConfig, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPBackend{
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}, nil
}

// Read fetches the content at path with a GET request.
func (b *HTTPBackend) Read(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.pathURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := mapHTTPStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	b.log.Debug("Read content over HTTP",
		slog.String("url", b.pathURL(path)),
		slog.Int("size", len(data)))

	return data, nil
}

// Write is refused; the backend is read-only.
func (b *HTTPBackend) Write(ctx context.Context, path string, data []byte) error {
	return fmt.Errorf("%w: http backend is read-only", interfaces.ErrPermissionDenied)
}

// Delete is refused; the backend is read-only.
func (b *HTTPBackend) Delete(ctx context.Context, path string) error {
	return fmt.Errorf("%w: http backend is read-only", interfaces.ErrPermissionDenied)
}

// Stat heads the entry at path.
func (b *HTTPBackend) Stat(ctx context.Context, path string) (interfaces.Stat, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, b.pathURL(path), nil)
	if err != nil {
		return interfaces.Stat{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return interfaces.Stat{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := mapHTTPStatus(resp.StatusCode); err != nil {
		return interfaces.Stat{}, err
	}

	stat := interfaces.Stat{
		Path:        path,
		Mode:        interfaces.EntryModeFile,
		Size:        resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			stat.LastModified = t
		}
	}
	return stat, nil
}

// List is refused; a generic HTTP endpoint has no enumeration contract.
func (b *HTTPBackend) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, fmt.Errorf("%w: http backend does not support listing", interfaces.ErrPermissionDenied)
}

// Close is a no-op.
func (b *HTTPBackend) Close(ctx context.Context) error {
	b.client.CloseIdleConnections()
	return nil
}

// Scheme returns "http".
func (b *HTTPBackend) Scheme() string {
	return "http"
}

// Name returns an identifier for logging.
func (b *HTTPBackend) Name() string {
	return fmt.Sprintf("http-%s", b.endpoint)
}

func (b *HTTPBackend) pathURL(path string) string {
	return b.endpoint + "/" + strings.TrimPrefix(path, "/")
}

// mapHTTPStatus translates response codes onto the shared taxonomy.
func mapHTTPStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return interfaces.ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: server returned %d", interfaces.ErrPermissionDenied, code)
	default:
		return fmt.Errorf("unexpected HTTP status %d", code)
	}
}
