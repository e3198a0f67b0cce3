package backends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("badger", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewBadgerBackend(cfg, log)
	})
}

// BadgerOptions configures the embedded Badger backend.
type BadgerOptions struct {
	// Dir is the database directory. Required unless InMemory is set.
	Dir string `mapstructure:"dir"`

	// InMemory keeps everything off disk; useful for tests that want a
	// persistent-backend code path without one.
	InMemory bool `mapstructure:"in_memory"`
}

// BadgerBackend stores content in an embedded Badger key-value database.
// Unlike the network backends it owns a real sub-resource (the open DB
// and its file locks), so Close matters.
type BadgerBackend struct {
	db   *badger.DB
	name string
	log  *slog.Logger
}

// NewBadgerBackend opens (or creates) the database and returns a backend
// over it. Only one backend can own a given directory at a time; Badger's
// directory lock enforces that.
func NewBadgerBackend(cfg interfaces.Config, log *slog.Logger) (*BadgerBackend, error) {
	var opts BadgerOptions
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}
	if opts.Dir == "" && !opts.InMemory {
		return nil, fmt.Errorf("%w: dir is required unless in_memory is set", interfaces.ErrInvalidConfig)
	}

	badgerOpts := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.InMemory).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database: %v", interfaces.ErrInvalidConfig, err)
	}

	name := opts.Dir
	if opts.InMemory {
		name = "in-memory"
	}

	return &BadgerBackend{db: db, name: name, log: log}, nil
}

// Read returns the value stored at path.
func (b *BadgerBackend) Read(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, mapBadgerError(err, "read")
	}
	return data, nil
}

// Write stores data at path.
func (b *BadgerBackend) Write(ctx context.Context, path string, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), data)
	})
	if err != nil {
		return mapBadgerError(err, "write")
	}
	return nil
}

// Delete removes the value at path. Badger deletes are idempotent.
func (b *BadgerBackend) Delete(ctx context.Context, path string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(path))
	})
	if err != nil {
		return mapBadgerError(err, "delete")
	}
	return nil
}

// Stat returns metadata for the value at path. Badger does not track
// modification times, so LastModified stays zero.
func (b *BadgerBackend) Stat(ctx context.Context, path string) (interfaces.Stat, error) {
	var size int64
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		size = item.ValueSize()
		return nil
	})
	if err != nil {
		return interfaces.Stat{}, mapBadgerError(err, "stat")
	}

	return interfaces.Stat{
		Path: path,
		Mode: interfaces.EntryModeFile,
		Size: size,
	}, nil
}

// List iterates keys with the given prefix, sorted.
func (b *BadgerBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			paths = append(paths, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, mapBadgerError(err, "list")
	}
	sort.Strings(paths)
	return paths, nil
}

// Close flushes and closes the database, releasing the directory lock.
func (b *BadgerBackend) Close(ctx context.Context) error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}

// Scheme returns "badger".
func (b *BadgerBackend) Scheme() string {
	return "badger"
}

// Name returns an identifier for logging.
func (b *BadgerBackend) Name() string {
	return fmt.Sprintf("badger-%s", strings.TrimPrefix(b.name, "/"))
}

// mapBadgerError translates Badger errors onto the shared taxonomy.
func mapBadgerError(err error, op string) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return interfaces.ErrNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: database already closed", interfaces.ErrUsedAfterRelease)
	default:
		return fmt.Errorf("badger %s failed: %w", op, err)
	}
}
