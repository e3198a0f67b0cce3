package backends

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("fs", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewFSBackend(cfg, log)
	})
}

// FSOptions configures the local filesystem backend.
type FSOptions struct {
	// Root is the directory all paths are resolved under.
	Root string `mapstructure:"root" validate:"required"`
}

// FSBackend stores content as regular files under a root directory.
type FSBackend struct {
	root string
	log  *slog.Logger
}

// NewFSBackend creates a filesystem backend rooted at the configured
// directory, creating it if needed.
func NewFSBackend(cfg interfaces.Config, log *slog.Logger) (*FSBackend, error) {
	var opts FSOptions
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidConfig, err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create root directory: %v", interfaces.ErrInvalidConfig, err)
	}

	return &FSBackend{root: root, log: log}, nil
}

// resolve maps a storage path onto the filesystem, rejecting paths that
// would escape the root.
func (b *FSBackend) resolve(path string) (string, error) {
	full := filepath.Join(b.root, filepath.FromSlash(path))
	if full != b.root && !strings.HasPrefix(full, b.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes backend root: %s", interfaces.ErrPermissionDenied, path)
	}
	return full, nil
}

// Read returns the content of the file at path.
func (b *FSBackend) Read(ctx context.Context, path string) ([]byte, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, mapFSError(err)
	}

	b.log.Debug("Read content from filesystem",
		slog.String("path", full),
		slog.Int("size", len(data)))

	return data, nil
}

// Write stores data at path, creating parent directories as needed.
func (b *FSBackend) Write(ctx context.Context, path string, data []byte) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return mapFSError(err)
	}

	if err := os.WriteFile(full, data, 0644); err != nil {
		return mapFSError(err)
	}

	b.log.Debug("Wrote content to filesystem",
		slog.String("path", full),
		slog.Int("size", len(data)))

	return nil
}

// Delete removes the file at path. A missing file is a no-op.
func (b *FSBackend) Delete(ctx context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return mapFSError(err)
	}
	return nil
}

// Stat returns metadata for the entry at path.
func (b *FSBackend) Stat(ctx context.Context, path string) (interfaces.Stat, error) {
	full, err := b.resolve(path)
	if err != nil {
		return interfaces.Stat{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return interfaces.Stat{}, mapFSError(err)
	}

	mode := interfaces.EntryModeFile
	if info.IsDir() {
		mode = interfaces.EntryModeDir
	}

	return interfaces.Stat{
		Path:         path,
		Mode:         mode,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// List walks the root and returns the slash-separated relative paths of
// all regular files with the given prefix.
func (b *FSBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(b.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, full)
		if err != nil {
			return err
		}
		path := filepath.ToSlash(rel)
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, mapFSError(err)
	}
	return paths, nil
}

// Close is a no-op; the backend holds no descriptors between operations.
func (b *FSBackend) Close(ctx context.Context) error {
	return nil
}

// Scheme returns "fs".
func (b *FSBackend) Scheme() string {
	return "fs"
}

// Name returns an identifier for logging.
func (b *FSBackend) Name() string {
	return fmt.Sprintf("fs-%s", filepath.Base(b.root))
}

// mapFSError translates filesystem errors onto the shared taxonomy.
func mapFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return interfaces.ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", interfaces.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("filesystem operation failed: %w", err)
	}
}
