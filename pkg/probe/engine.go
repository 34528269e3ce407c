package probe

// ShiftEngine abstracts a hardware shift-register peripheral that can
// exchange whole bytes full duplex at a fixed high clock rate, with TMS held
// low for the duration. It is only valid while the TAP is to remain in its
// current state (mid Shift-DR/Shift-IR, typically).
type ShiftEngine interface {
	// Acquire switches the TCK/TDI/TDO pin functions over to the shift
	// peripheral. The lines must be returned with Release before the
	// bit-banged path is used again.
	Acquire() error

	// Release restores the lines to their bit-banged pin function.
	Release() error

	// Exchange transmits len(out) bytes while receiving the same number into
	// in (len(in) >= len(out)). Bytes go out exactly as supplied; any
	// bit-order mismatch between the peripheral and the TAP is compensated
	// by the caller. A peripheral that fails to become ready within its
	// bounded cycle budget returns ErrEngineBusy.
	Exchange(out, in []byte) error
}
