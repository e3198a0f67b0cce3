package backends

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("ipfs", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewIPFSBackend(cfg, log)
	})
}

// IPFSOptions configures the IPFS backend.
type IPFSOptions struct {
	// Endpoint is the IPFS API address, host:port.
	Endpoint string `mapstructure:"endpoint" validate:"required"`

	// Root is the MFS directory all paths are resolved under.
	Root string `mapstructure:"root"`
}

// IPFSBackend stores content in an IPFS node's mutable filesystem (MFS),
// which gives the pathed read/write/delete surface raw content addressing
// does not.
type IPFSBackend struct {
	shell    *shell.Shell
	endpoint string
	root     string
	log      *slog.Logger
}

// NewIPFSBackend creates an IPFS backend connected to the configured API
// endpoint. The node must be reachable at construction time.
func NewIPFSBackend(cfg interfaces.Config, log *slog.Logger) (*IPFSBackend, error) {
	var opts IPFSOptions
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}

	sh := shell.NewShell(opts.Endpoint)
	if !sh.IsUp() {
		return nil, fmt.Errorf("%w: IPFS node not reachable at %s", interfaces.ErrInvalidConfig, opts.Endpoint)
	}

	return &IPFSBackend{
		shell:    sh,
		endpoint: opts.Endpoint,
		root:     "/" + strings.Trim(opts.Root, "/"),
		log:      log,
	}, nil
}

// Read fetches the MFS file at path.
func (b *IPFSBackend) Read(ctx context.Context, p string) ([]byte, error) {
	start := time.Now()
	mfs := b.mfsPath(p)

	reader, err := b.shell.FilesRead(ctx, mfs)
	if err != nil {
		return nil, mapIPFSError(err, "read")
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read MFS file: %w", err)
	}

	b.log.Debug("Read content from IPFS",
		slog.String("path", mfs),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Write stores data at the MFS path, creating parents and truncating any
// previous content.
func (b *IPFSBackend) Write(ctx context.Context, p string, data []byte) error {
	mfs := b.mfsPath(p)

	err := b.shell.FilesWrite(ctx, mfs, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return mapIPFSError(err, "write")
	}

	b.log.Debug("Wrote content to IPFS",
		slog.String("path", mfs),
		slog.Int("size", len(data)))

	return nil
}

// Delete removes the MFS file at path. A missing file is a no-op.
func (b *IPFSBackend) Delete(ctx context.Context, p string) error {
	if err := b.shell.FilesRm(ctx, b.mfsPath(p), true); err != nil {
		mapped := mapIPFSError(err, "rm")
		if mapped == interfaces.ErrNotFound {
			return nil
		}
		return mapped
	}
	return nil
}

// Stat returns MFS metadata for the entry at path.
func (b *IPFSBackend) Stat(ctx context.Context, p string) (interfaces.Stat, error) {
	info, err := b.shell.FilesStat(ctx, b.mfsPath(p))
	if err != nil {
		return interfaces.Stat{}, mapIPFSError(err, "stat")
	}

	mode := interfaces.EntryModeFile
	if info.Type == "directory" {
		mode = interfaces.EntryModeDir
	}

	// MFS does not track modification times.
	return interfaces.Stat{
		Path: p,
		Mode: mode,
		Size: int64(info.Size),
	}, nil
}

// List returns the entries of the MFS directory at prefix.
func (b *IPFSBackend) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := b.shell.FilesLs(ctx, b.mfsPath(prefix))
	if err != nil {
		return nil, mapIPFSError(err, "ls")
	}

	var paths []string
	for _, entry := range entries {
		paths = append(paths, path.Join(strings.Trim(prefix, "/"), entry.Name))
	}
	return paths, nil
}

// Close is a no-op; the shell holds no persistent connection.
func (b *IPFSBackend) Close(ctx context.Context) error {
	return nil
}

// Scheme returns "ipfs".
func (b *IPFSBackend) Scheme() string {
	return "ipfs"
}

// Name returns an identifier for logging.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s", b.endpoint)
}

func (b *IPFSBackend) mfsPath(p string) string {
	return path.Join(b.root, strings.TrimPrefix(p, "/"))
}

// mapIPFSError translates IPFS API errors onto the shared taxonomy. The
// files API reports missing entries only through message text.
func mapIPFSError(err error, op string) error {
	msg := err.Error()
	if strings.Contains(msg, "file does not exist") || strings.Contains(msg, "no link named") {
		return interfaces.ErrNotFound
	}
	return fmt.Errorf("ipfs %s failed: %w", op, err)
}
