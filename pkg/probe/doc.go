// Package probe implements the TAP controller core of the debug probe: the
// bit-banged pin driver, the hardware shift-engine block path, and the scan
// engine that splits each request between the two and keeps the tracked TAP
// state consistent with every clock edge actually driven.
//
// The package is backend-agnostic. Hardware access goes through the Pins and
// ShiftEngine interfaces; LoopbackPins and SimEngine provide in-memory
// implementations so the whole controller can be exercised without a board
// attached.
package probe
