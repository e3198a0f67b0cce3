package boundary

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kidylee/incubator-opendal/handle"
	"github.com/kidylee/incubator-opendal/interfaces"
	"github.com/kidylee/incubator-opendal/operator"
)

// Surface is the flat call surface a host runtime binds against. It
// owns a handle registry and a last-error slot; results come back as
// (value, Status) pairs with no Go error types crossing over.
type Surface struct {
	handles *handle.Registry
	log     *slog.Logger

	errMu   sync.Mutex
	lastErr string
}

// NewSurface creates a boundary surface with its own handle registry.
func NewSurface(log *slog.Logger) *Surface {
	if log == nil {
		log = slog.Default()
	}
	return &Surface{
		handles: handle.NewRegistry(log),
		log:     log,
	}
}

// CollectConfig reconstructs a configuration map from the alternating
// key/value pairs boundary conventions use instead of a native map.
// Duplicate keys resolve last-write-wins; a dangling key with no value
// is dropped.
func CollectConfig(pairs []string) interfaces.Config {
	cfg := make(interfaces.Config, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cfg[pairs[i]] = pairs[i+1]
	}
	return cfg
}

// Construct resolves scheme plus flattened configuration into a live
// operator and issues a handle for it. On any failure no handle is
// issued; the zero handle is never valid.
func (s *Surface) Construct(scheme string, pairs []string) (handle.Handle, Status) {
	op, err := operator.New(scheme, CollectConfig(pairs), s.log)
	if err != nil {
		return 0, s.fail(err)
	}
	return s.handles.Issue(op), StatusOK
}

// Read returns the content at path for the operator behind h.
func (s *Surface) Read(h handle.Handle, path string) ([]byte, Status) {
	op, err := s.handles.Resolve(h)
	if err != nil {
		return nil, s.fail(err)
	}

	data, err := op.Read(context.Background(), path)
	if err != nil {
		return nil, s.fail(err)
	}
	return data, StatusOK
}

// Write stores content at path for the operator behind h.
func (s *Surface) Write(h handle.Handle, path string, data []byte) Status {
	op, err := s.handles.Resolve(h)
	if err != nil {
		return s.fail(err)
	}

	if err := op.Write(context.Background(), path, data); err != nil {
		return s.fail(err)
	}
	return StatusOK
}

// Delete removes the entry at path. Idempotent: a missing path is OK.
func (s *Surface) Delete(h handle.Handle, path string) Status {
	op, err := s.handles.Resolve(h)
	if err != nil {
		return s.fail(err)
	}

	if err := op.Delete(context.Background(), path); err != nil {
		return s.fail(err)
	}
	return StatusOK
}

// Stat returns metadata for the entry at path. The stat is a plain
// value on this side of the boundary; hosts that model it as a resource
// allocate one only on StatusOK.
func (s *Surface) Stat(h handle.Handle, path string) (interfaces.Stat, Status) {
	op, err := s.handles.Resolve(h)
	if err != nil {
		return interfaces.Stat{}, s.fail(err)
	}

	stat, err := op.Stat(context.Background(), path)
	if err != nil {
		return interfaces.Stat{}, s.fail(err)
	}
	return stat, StatusOK
}

// List returns the paths under prefix.
func (s *Surface) List(h handle.Handle, prefix string) ([]string, Status) {
	op, err := s.handles.Resolve(h)
	if err != nil {
		return nil, s.fail(err)
	}

	paths, err := op.List(context.Background(), prefix)
	if err != nil {
		return nil, s.fail(err)
	}
	return paths, StatusOK
}

// Release invalidates h and tears down its operator. The first call
// wins; later calls - including a collector's finalizer racing an
// explicit release - report StatusInvalidHandle and do nothing.
func (s *Surface) Release(h handle.Handle) Status {
	if err := s.handles.Release(context.Background(), h); err != nil {
		return s.fail(err)
	}
	return StatusOK
}

// LastError returns the message of the most recent failed call on this
// surface, errno-style. Successful calls leave it untouched.
func (s *Surface) LastError() string {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

func (s *Surface) fail(err error) Status {
	s.errMu.Lock()
	s.lastErr = err.Error()
	s.errMu.Unlock()
	return StatusOf(err)
}
