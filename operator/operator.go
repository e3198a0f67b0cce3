package operator

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/atomic"

	"github.com/kidylee/incubator-opendal/backends"
	"github.com/kidylee/incubator-opendal/interfaces"
)

// Operator is the facade over exactly one storage backend. It owns the
// backend exclusively: operations delegate to it while the operator is
// live, and Release tears it down exactly once. A released operator is
// inert but harmless; every later call fails with
// interfaces.ErrUsedAfterRelease without touching the backend.
type Operator struct {
	backend  interfaces.Backend
	released atomic.Bool
	log      *slog.Logger
}

// New resolves the scheme against the default backend registry and wraps
// the constructed backend. Construction is all-or-nothing: on error no
// operator exists and nothing needs releasing.
func New(scheme string, cfg interfaces.Config, log *slog.Logger) (*Operator, error) {
	if log == nil {
		log = slog.Default()
	}

	backend, err := backends.New(scheme, cfg, log)
	if err != nil {
		return nil, err
	}

	return Wrap(backend, log), nil
}

// Wrap takes exclusive ownership of an already-constructed backend.
func Wrap(backend interfaces.Backend, log *slog.Logger) *Operator {
	if log == nil {
		log = slog.Default()
	}
	return &Operator{
		backend: backend,
		log:     log.With(slog.String("backend_name", backend.Name())),
	}
}

// guard rejects operations on a released operator before the backend is
// dereferenced.
func (o *Operator) guard(op string) error {
	if o.released.Load() {
		return fmt.Errorf("%w: %s", interfaces.ErrUsedAfterRelease, op)
	}
	return nil
}

// Read returns the content stored at path.
func (o *Operator) Read(ctx context.Context, path string) ([]byte, error) {
	if err := o.guard("read"); err != nil {
		return nil, err
	}
	return o.backend.Read(ctx, path)
}

// Write stores content at path, overwriting unconditionally.
func (o *Operator) Write(ctx context.Context, path string, data []byte) error {
	if err := o.guard("write"); err != nil {
		return err
	}
	return o.backend.Write(ctx, path, data)
}

// Delete removes the entry at path. Deleting a missing path succeeds, so
// repeated cleanup calls are safe.
func (o *Operator) Delete(ctx context.Context, path string) error {
	if err := o.guard("delete"); err != nil {
		return err
	}
	return o.backend.Delete(ctx, path)
}

// Stat returns metadata for the entry at path.
func (o *Operator) Stat(ctx context.Context, path string) (interfaces.Stat, error) {
	if err := o.guard("stat"); err != nil {
		return interfaces.Stat{}, err
	}
	return o.backend.Stat(ctx, path)
}

// List returns the paths stored under prefix.
func (o *Operator) List(ctx context.Context, prefix string) ([]string, error) {
	if err := o.guard("list"); err != nil {
		return nil, err
	}
	return o.backend.List(ctx, prefix)
}

// Copy duplicates the content at from to to. Composed from read and
// write; backends with a native server-side copy are not special-cased
// here.
func (o *Operator) Copy(ctx context.Context, from, to string) error {
	if err := o.guard("copy"); err != nil {
		return err
	}

	data, err := o.backend.Read(ctx, from)
	if err != nil {
		return err
	}
	return o.backend.Write(ctx, to, data)
}

// Rename moves the content at from to to. The source is removed only
// after the destination write succeeds.
func (o *Operator) Rename(ctx context.Context, from, to string) error {
	if err := o.guard("rename"); err != nil {
		return err
	}

	data, err := o.backend.Read(ctx, from)
	if err != nil {
		return err
	}
	if err := o.backend.Write(ctx, to, data); err != nil {
		return err
	}
	return o.backend.Delete(ctx, from)
}

// Release tears down the owned backend and transitions the operator to
// released. The transition is one-way and idempotent: only the first
// call performs teardown, every later call is a no-op returning nil.
func (o *Operator) Release(ctx context.Context) error {
	if !o.released.CompareAndSwap(false, true) {
		return nil
	}

	o.log.Debug("Releasing operator")

	if err := o.backend.Close(ctx); err != nil {
		o.log.Warn("Backend teardown reported an error", "err", err)
		return fmt.Errorf("backend teardown failed: %w", err)
	}
	return nil
}

// Released reports whether the operator has been released.
func (o *Operator) Released() bool {
	return o.released.Load()
}

// Scheme returns the scheme of the owned backend.
func (o *Operator) Scheme() string {
	return o.backend.Scheme()
}

// Name returns the owned backend's logging identifier.
func (o *Operator) Name() string {
	return o.backend.Name()
}
