// Package vendorlink implements the probe's host-facing vendor command
// surface: a half-duplex request/response protocol where every operation is
// a request code plus two unsigned 16-bit fields and an optional payload.
//
// The same protocol is spoken in-process (Loopback, for tests and the
// simulator backend) and over USB vendor control transfers (USBDevice).
package vendorlink

// Vendor request codes.
const (
	ReqClearOutBuffer uint8 = 0xb0
	ReqSetOutBuffer   uint8 = 0xb1
	ReqGetInBuffer    uint8 = 0xb2
	ReqScan           uint8 = 0xb3
	ReqRunClock       uint8 = 0xb4
	ReqGotoState      uint8 = 0xb5
	ReqGetState       uint8 = 0xb6
	ReqGetInfo        uint8 = 0xb8
	ReqStop           uint8 = 0xbe
	ReqStart          uint8 = 0xbf
)

// Scan request index field: non-zero advances the TAP FSM on the final bit.
const (
	ScanHoldState    uint16 = 0
	ScanAdvanceState uint16 = 1
)

// InfoLength is the response size of GetInfo: two little-endian uint32s,
// buffer capacity in bytes followed by the quirk bitfield.
const InfoLength = 8

// Requester is the host side of the vendor protocol. Out carries a request
// toward the device with an optional payload; In additionally reads back up
// to length bytes. A request the device rejects surfaces as an error
// (a control stall on the USB transport).
type Requester interface {
	Out(req uint8, value, index uint16, payload []byte) error
	In(req uint8, value, index uint16, length int) ([]byte, error)
	Close() error
}
