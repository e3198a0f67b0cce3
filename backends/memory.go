package backends

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("memory", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewMemoryBackend(cfg, log)
	})
}

var errClosedMemory = fmt.Errorf("%w: memory backend closed", interfaces.ErrUsedAfterRelease)

// MemoryOptions configures the in-memory backend.
type MemoryOptions struct {
	// Root is accepted for compatibility with hosts that always pass one.
	// The backend keys entries by path alone.
	Root string `mapstructure:"root"`

	// Capacity caps the total stored bytes; zero means unbounded. Writes
	// that would exceed it fail with a quota error.
	Capacity int64 `mapstructure:"capacity" validate:"gte=0"`
}

// MemoryBackend is the reference backend: a process-local map guarded by a
// read-write mutex. Two instances never share state, which makes it the
// backend the lifecycle and operator tests run against.
type MemoryBackend struct {
	mu       sync.RWMutex
	entries  map[string][]byte
	modified map[string]time.Time
	used     int64
	capacity int64
	closed   bool
	log      *slog.Logger
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(cfg interfaces.Config, log *slog.Logger) (*MemoryBackend, error) {
	var opts MemoryOptions
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}

	return &MemoryBackend{
		entries:  make(map[string][]byte),
		modified: make(map[string]time.Time),
		capacity: opts.Capacity,
		log:      log,
	}, nil
}

// Read returns a copy of the content at path.
func (b *MemoryBackend) Read(ctx context.Context, path string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errClosedMemory
	}

	data, ok := b.entries[path]
	if !ok {
		return nil, interfaces.ErrNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write stores a copy of data at path, replacing any previous content.
func (b *MemoryBackend) Write(ctx context.Context, path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errClosedMemory
	}

	next := b.used - int64(len(b.entries[path])) + int64(len(data))
	if b.capacity > 0 && next > b.capacity {
		return fmt.Errorf("%w: %d of %d bytes used", interfaces.ErrQuotaExceeded, b.used, b.capacity)
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	b.entries[path] = stored
	b.modified[path] = time.Now()
	b.used = next
	return nil
}

// Delete removes the entry at path. Missing entries are a no-op.
func (b *MemoryBackend) Delete(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errClosedMemory
	}

	if data, ok := b.entries[path]; ok {
		b.used -= int64(len(data))
		delete(b.entries, path)
		delete(b.modified, path)
	}
	return nil
}

// Stat returns metadata for the entry at path.
func (b *MemoryBackend) Stat(ctx context.Context, path string) (interfaces.Stat, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return interfaces.Stat{}, errClosedMemory
	}

	data, ok := b.entries[path]
	if !ok {
		return interfaces.Stat{}, interfaces.ErrNotFound
	}

	return interfaces.Stat{
		Path:         path,
		Mode:         interfaces.EntryModeFile,
		Size:         int64(len(data)),
		LastModified: b.modified[path],
	}, nil
}

// List returns all stored paths with the given prefix, sorted.
func (b *MemoryBackend) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errClosedMemory
	}

	var paths []string
	for path := range b.entries {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Close drops all entries. Later operations report a release error
// rather than faulting, covering the window where a racing caller still
// holds the backend.
func (b *MemoryBackend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.entries = nil
	b.modified = nil
	b.used = 0
	return nil
}

// Scheme returns "memory".
func (b *MemoryBackend) Scheme() string {
	return "memory"
}

// Name returns an identifier for logging.
func (b *MemoryBackend) Name() string {
	return "memory"
}
