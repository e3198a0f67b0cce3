// Package interfaces defines the core contracts of the storage access
// layer, separating interface definitions from implementations.
//
// # Storage Interfaces
//
// Backend: the capability set one storage protocol implements (read, write,
// delete, stat, list). Concrete backends live in the backends package and
// are selected by scheme name at construction time.
//
// # Value Types
//
// Config: flat string-keyed construction parameters, reconstructed from
// whatever transport the calling environment uses.
//
// Stat: transient metadata for a stored entry (mode, size, modification
// time, content type).
//
// # Error Taxonomy
//
// Construction errors (ErrUnknownScheme, ErrInvalidConfig), operation
// errors (ErrNotFound, ErrPermissionDenied, ErrQuotaExceeded,
// ErrUsedAfterRelease) and the lifecycle lookup error (ErrInvalidHandle)
// are sentinel values matched with errors.Is. Backends raise the most
// specific sentinel available and wrap protocol errors otherwise; the
// operator facade passes them through unchanged.
package interfaces
