package backends

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/studio-b12/gowebdav"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("webdav", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewWebDAVBackend(cfg, log)
	})
}

// WebDAVOptions configures the WebDAV backend.
type WebDAVOptions struct {
	Endpoint string `mapstructure:"endpoint" validate:"required,url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// Root is an optional collection prefix all paths are resolved under.
	Root string `mapstructure:"root"`
}

// WebDAVBackend stores content on a WebDAV server.
type WebDAVBackend struct {
	client   *gowebdav.Client
	endpoint string
	root     string
	log      *slog.Logger
}

// NewWebDAVBackend creates a WebDAV backend and eagerly probes the
// endpoint; an unreachable or unauthorized server is a configuration
// error at construction time.
func NewWebDAVBackend(cfg interfaces.Config, log *slog.Logger) (*WebDAVBackend, error) {
	var opts WebDAVOptions
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}

	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidConfig, err)
	}

	client := gowebdav.NewClient(opts.Endpoint, opts.Username, opts.Password)
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("%w: webdav endpoint not reachable: %v", interfaces.ErrInvalidConfig, err)
	}

	return &WebDAVBackend{
		client:   client,
		endpoint: opts.Endpoint,
		root:     strings.Trim(opts.Root, "/"),
		log:      log,
	}, nil
}

// Read downloads the file at path.
func (b *WebDAVBackend) Read(ctx context.Context, p string) ([]byte, error) {
	data, err := b.client.Read(b.davPath(p))
	if err != nil {
		return nil, mapWebDAVError(err, "read")
	}

	b.log.Debug("Read content from WebDAV",
		slog.String("path", b.davPath(p)),
		slog.Int("size", len(data)))

	return data, nil
}

// Write uploads data to path, creating parent collections as needed.
func (b *WebDAVBackend) Write(ctx context.Context, p string, data []byte) error {
	dav := b.davPath(p)

	if dir := path.Dir(dav); dir != "/" && dir != "." {
		if err := b.client.MkdirAll(dir, 0755); err != nil {
			return mapWebDAVError(err, "mkdir")
		}
	}

	if err := b.client.Write(dav, data, 0644); err != nil {
		return mapWebDAVError(err, "write")
	}

	b.log.Debug("Wrote content to WebDAV",
		slog.String("path", dav),
		slog.Int("size", len(data)))

	return nil
}

// Delete removes the file at path. A missing file is a no-op.
func (b *WebDAVBackend) Delete(ctx context.Context, p string) error {
	if err := b.client.Remove(b.davPath(p)); err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil
		}
		return mapWebDAVError(err, "remove")
	}
	return nil
}

// Stat runs PROPFIND for the entry at path.
func (b *WebDAVBackend) Stat(ctx context.Context, p string) (interfaces.Stat, error) {
	info, err := b.client.Stat(b.davPath(p))
	if err != nil {
		return interfaces.Stat{}, mapWebDAVError(err, "stat")
	}

	mode := interfaces.EntryModeFile
	if info.IsDir() {
		mode = interfaces.EntryModeDir
	}

	stat := interfaces.Stat{
		Path:         p,
		Mode:         mode,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}
	if fi, ok := info.(*gowebdav.File); ok {
		stat.ContentType = fi.ContentType()
	}
	return stat, nil
}

// List reads the collection at prefix and returns the contained file
// paths.
func (b *WebDAVBackend) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := b.client.ReadDir(b.davPath(prefix))
	if err != nil {
		return nil, mapWebDAVError(err, "list")
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, path.Join(strings.Trim(prefix, "/"), entry.Name()))
	}
	return paths, nil
}

// Close is a no-op; the client is stateless between requests.
func (b *WebDAVBackend) Close(ctx context.Context) error {
	return nil
}

// Scheme returns "webdav".
func (b *WebDAVBackend) Scheme() string {
	return "webdav"
}

// Name returns an identifier for logging.
func (b *WebDAVBackend) Name() string {
	return fmt.Sprintf("webdav-%s", b.endpoint)
}

func (b *WebDAVBackend) davPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if b.root == "" {
		return "/" + p
	}
	return "/" + path.Join(b.root, p)
}

// mapWebDAVError translates DAV status errors onto the shared taxonomy.
func mapWebDAVError(err error, op string) error {
	switch {
	case gowebdav.IsErrNotFound(err):
		return interfaces.ErrNotFound
	case gowebdav.IsErrCode(err, 401), gowebdav.IsErrCode(err, 403):
		return fmt.Errorf("%w: %v", interfaces.ErrPermissionDenied, err)
	case gowebdav.IsErrCode(err, 507):
		return fmt.Errorf("%w: %v", interfaces.ErrQuotaExceeded, err)
	default:
		return fmt.Errorf("webdav %s failed: %w", op, err)
	}
}
