// Package backends provides the scheme registry and the concrete storage
// backends behind the operator facade.
//
// A backend is selected by scheme name and constructed from a flat
// string-keyed configuration map:
//
//	b, err := backends.New("s3", interfaces.Config{
//	    "bucket": "artifacts",
//	    "region": "eu-west-1",
//	}, logger)
//
// # Registered Schemes
//
//   - memory - process-local reference backend, optional capacity cap
//   - fs     - local filesystem under a root directory
//   - s3     - Amazon S3 or compatible object storage
//   - azblob - Azure Blob Storage
//   - webdav - WebDAV server
//   - http   - read-only HTTP(S) endpoint
//   - ipfs   - IPFS node via the mutable filesystem API
//   - vault  - HashiCorp Vault KV v2
//   - badger - embedded Badger key-value database
//   - mirror - redundant fan-out over other registered schemes
//
// New schemes are added by registration, not by editing dispatch code:
//
//	backends.Register("custom", newCustomBackend)
//
// # Configuration
//
// Each backend decodes its configuration into a typed options struct and
// validates required keys before any connection is opened; a missing or
// malformed key surfaces as interfaces.ErrInvalidConfig wrapping the
// cause. Values are strings throughout; backends parse booleans, sizes
// and durations themselves.
//
// # Error Mapping
//
// Backends translate their protocol's failure modes onto the sentinel
// errors in the interfaces package (not-found, permission denied, quota
// exceeded) and wrap everything else with operational context, so callers
// can match with errors.Is regardless of scheme.
package backends
