package probe

import (
	"errors"
	"fmt"
)

// ErrZeroLengthScan rejects scan requests with a bit count of zero. The
// request has no side effects; TAP state and buffers are left untouched.
var ErrZeroLengthScan = errors.New("probe: zero-length scan")

// ErrNotStarted is returned when an operation requires Start to have been
// called first.
var ErrNotStarted = errors.New("probe: controller not started")

// ErrEngineBusy indicates the shift peripheral did not become ready within
// its bounded cycle budget. The failed request is abandoned; the controller
// itself remains usable and the caller may retry after Start.
var ErrEngineBusy = errors.New("probe: shift engine not ready")

// CapacityError rejects a request that would overrun the scan buffers.
// Buffers and TAP state are left unmodified.
type CapacityError struct {
	RequestedBytes int
	CapacityBytes  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("probe: request needs %d bytes, buffer holds %d",
		e.RequestedBytes, e.CapacityBytes)
}
