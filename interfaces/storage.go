package interfaces

import (
	"context"
	"errors"
	"time"
)

// Config holds backend construction parameters as a flat string map.
// Keys are backend-specific ("bucket", "root", "endpoint", ...). Values are
// never type-coerced by the core; each backend parses what it needs.
type Config map[string]string

// Clone returns a copy of the config. Backends that keep parameters past
// construction must copy them, since the caller may reuse the map.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// EntryMode describes what kind of entry a path points at.
type EntryMode int

const (
	// EntryModeFile is a regular object holding content.
	EntryModeFile EntryMode = iota
	// EntryModeDir is a directory-like entry.
	EntryModeDir
)

// String returns the mode name.
func (m EntryMode) String() string {
	switch m {
	case EntryModeFile:
		return "file"
	case EntryModeDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Stat describes a stored entry's metadata. It is a transient value:
// produced by a stat call, consumed by the caller, holding no resources.
type Stat struct {
	// Path is the path the stat was taken for.
	Path string
	// Mode distinguishes files from directory-like entries.
	Mode EntryMode
	// Size is the content length in bytes.
	Size int64
	// LastModified is the backend-reported modification time, zero when
	// the backend does not track one.
	LastModified time.Time
	// ContentType is the MIME type when the backend knows it.
	ContentType string
}

// IsDir reports whether the entry is directory-like.
func (s Stat) IsDir() bool {
	return s.Mode == EntryModeDir
}

var (
	// ErrUnknownScheme is returned when constructing a backend for a scheme
	// no constructor has been registered for. Schemes are case-sensitive.
	ErrUnknownScheme = errors.New("unknown backend scheme")

	// ErrInvalidConfig is returned when a known scheme rejects its
	// configuration: a missing required key, an unparseable value, or an
	// endpoint the backend eagerly validates and cannot reach.
	ErrInvalidConfig = errors.New("invalid backend configuration")

	// ErrNotFound is returned when the requested path does not exist in
	// the backend.
	ErrNotFound = errors.New("entry not found")

	// ErrPermissionDenied is returned when the backend refuses the
	// operation for authentication or authorization reasons.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrQuotaExceeded is returned when the backend enforces a capacity
	// limit and the write would exceed it.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrUsedAfterRelease is returned for any operation on an operator
	// whose backend has already been torn down. The operator stays inert;
	// it never dereferences the released backend.
	ErrUsedAfterRelease = errors.New("operator used after release")

	// ErrInvalidHandle is returned when a handle was never issued or has
	// already been released. It indicates a lifecycle bug in the caller
	// and is deliberately distinct from every operation error.
	ErrInvalidHandle = errors.New("invalid operator handle")
)

// Backend is the storage capability set one protocol implements. A backend
// is a live, stateful connection context: not copyable, exclusively owned
// by exactly one operator, released exactly once through Close.
//
// Delete is idempotent: deleting a path that does not exist is not an
// error. Write overwrites unconditionally. Backends map their protocol's
// failure modes onto the sentinel errors above and wrap everything else.
type Backend interface {
	// Read returns the full content stored at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores content at path, replacing any previous content.
	Write(ctx context.Context, path string, data []byte) error

	// Delete removes the entry at path. Missing paths are not an error.
	Delete(ctx context.Context, path string) error

	// Stat returns metadata for the entry at path.
	Stat(ctx context.Context, path string) (Stat, error)

	// List returns the paths stored under prefix. Order is unspecified.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close tears down the backend and its sub-resources (connections,
	// file descriptors, credentials). Called at most once, by the owning
	// operator.
	Close(ctx context.Context) error

	// Scheme returns the scheme the backend was constructed for.
	Scheme() string

	// Name returns an identifier for logging.
	Name() string
}
