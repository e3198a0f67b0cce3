package handle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/kidylee/incubator-opendal/interfaces"
	"github.com/kidylee/incubator-opendal/operator"
)

// Handle is an opaque token referencing a live operator across a
// boundary where caller and core share no memory model. Tokens come from
// a monotonic counter and are never reused, so a stale handle can never
// alias a newer operator. The zero value is never issued.
type Handle uint64

// String formats the handle for logs and error messages.
func (h Handle) String() string {
	return fmt.Sprintf("handle-%d", uint64(h))
}

// Registry is the handle lifecycle manager: it issues tokens for live
// operators, resolves tokens back on every call, and enforces
// at-most-once release. The table lock only ever covers map operations,
// never backend I/O, so resolution stays bounded even while other
// handles are mid-operation.
type Registry struct {
	mu        sync.RWMutex
	operators map[Handle]*operator.Operator
	next      atomic.Uint64
	log       *slog.Logger
}

// NewRegistry creates an empty handle registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		operators: make(map[Handle]*operator.Operator),
		log:       log,
	}
}

// Issue allocates a fresh token for a live operator. The registry holds
// a non-owning association; the operator is destroyed only through the
// explicit release path, never by dropping the table entry.
func (r *Registry) Issue(op *operator.Operator) Handle {
	h := Handle(r.next.Inc())

	r.mu.Lock()
	r.operators[h] = op
	r.mu.Unlock()

	r.log.Debug("Issued operator handle",
		slog.String("handle", h.String()),
		slog.String("backend_name", op.Name()))

	return h
}

// Resolve returns the operator a token refers to. Tokens that were never
// issued or have been released fail with interfaces.ErrInvalidHandle -
// a lifecycle error, deliberately distinct from every operation error.
func (r *Registry) Resolve(h Handle) (*operator.Operator, error) {
	r.mu.RLock()
	op, ok := r.operators[h]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrInvalidHandle, h)
	}
	return op, nil
}

// Release invalidates the token and tears down its operator. The entry
// is removed under the lock first, so once Release returns no Resolve of
// the same token can ever succeed; the operator teardown itself happens
// outside the lock, keeping the table responsive for other handles.
//
// Exactly one caller wins the removal. Every later call - including a
// finalizer racing an explicit release - gets ErrInvalidHandle without
// re-entering teardown, which is what makes the call safe from
// non-deterministic cleanup paths.
func (r *Registry) Release(ctx context.Context, h Handle) error {
	r.mu.Lock()
	op, ok := r.operators[h]
	if ok {
		delete(r.operators, h)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", interfaces.ErrInvalidHandle, h)
	}

	r.log.Debug("Released operator handle", slog.String("handle", h.String()))

	return op.Release(ctx)
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.operators)
}

// ReleaseAll releases every live handle, for orderly shutdown of an
// embedding host. Individual teardown failures are logged, not
// propagated, so one broken backend cannot block draining the rest.
func (r *Registry) ReleaseAll(ctx context.Context) {
	r.mu.Lock()
	operators := r.operators
	r.operators = make(map[Handle]*operator.Operator)
	r.mu.Unlock()

	for h, op := range operators {
		if err := op.Release(ctx); err != nil {
			r.log.Warn("Failed to release operator during shutdown",
				slog.String("handle", h.String()),
				"err", err)
		}
	}
}
