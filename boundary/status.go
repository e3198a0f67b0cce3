package boundary

import (
	"errors"

	"github.com/kidylee/incubator-opendal/interfaces"
)

// Status is the coarse result code every boundary call returns. Rich
// error objects cannot cross the boundary, so hosts branch on the code
// and fetch LastError for the human-readable cause.
type Status int32

const (
	// StatusOK means the call succeeded.
	StatusOK Status = 0
	// StatusUnknownScheme: construction named a scheme with no
	// registered backend.
	StatusUnknownScheme Status = 1
	// StatusInvalidConfig: construction failed on the configuration.
	StatusInvalidConfig Status = 2
	// StatusNotFound: the path does not exist in the backend.
	StatusNotFound Status = 3
	// StatusPermissionDenied: the backend refused the operation.
	StatusPermissionDenied Status = 4
	// StatusQuotaExceeded: the backend's capacity limit was hit.
	StatusQuotaExceeded Status = 5
	// StatusUsedAfterRelease: the operator behind the handle was already
	// released.
	StatusUsedAfterRelease Status = 6
	// StatusInvalidHandle: the handle was never issued or is already
	// released - a caller lifecycle bug, distinct from storage outcomes.
	StatusInvalidHandle Status = 7
	// StatusIO covers transport and protocol failures with no more
	// specific code.
	StatusIO Status = 8
)

// String returns the code name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnknownScheme:
		return "unknown_scheme"
	case StatusInvalidConfig:
		return "invalid_config"
	case StatusNotFound:
		return "not_found"
	case StatusPermissionDenied:
		return "permission_denied"
	case StatusQuotaExceeded:
		return "quota_exceeded"
	case StatusUsedAfterRelease:
		return "used_after_release"
	case StatusInvalidHandle:
		return "invalid_handle"
	case StatusIO:
		return "io"
	default:
		return "unknown"
	}
}

// StatusOf maps an error from the core onto its boundary code. Lookup
// errors keep their own code so a lifecycle bug is never mistaken for a
// storage outcome.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, interfaces.ErrInvalidHandle):
		return StatusInvalidHandle
	case errors.Is(err, interfaces.ErrUsedAfterRelease):
		return StatusUsedAfterRelease
	case errors.Is(err, interfaces.ErrUnknownScheme):
		return StatusUnknownScheme
	case errors.Is(err, interfaces.ErrInvalidConfig):
		return StatusInvalidConfig
	case errors.Is(err, interfaces.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, interfaces.ErrPermissionDenied):
		return StatusPermissionDenied
	case errors.Is(err, interfaces.ErrQuotaExceeded):
		return StatusQuotaExceeded
	default:
		return StatusIO
	}
}
