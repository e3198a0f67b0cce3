// Package operator provides the storage access facade: one Operator
// wraps exactly one backend and exposes the uniform operation surface
// (read, write, delete, stat, list, copy, rename) against it.
//
// The facade owns the live/released lifecycle. Release is one-way and
// idempotent; after it, every operation fails cleanly with
// interfaces.ErrUsedAfterRelease instead of reaching the torn-down
// backend. Backend errors otherwise pass through unchanged - the facade
// never retries and never downgrades an error, since only the backend
// knows which of its failures are transient.
package operator
