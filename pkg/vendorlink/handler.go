package vendorlink

import (
	"encoding/binary"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

// Handler is the device side of the vendor protocol: it decodes each
// request's two 16-bit fields and dispatches onto a probe controller.
// A returned error corresponds to stalling the request; it never leaves the
// controller in a half-updated state, because every rejected controller
// operation is side-effect free.
type Handler struct {
	ctl *probe.Controller
}

// NewHandler wraps a controller in a request dispatcher.
func NewHandler(ctl *probe.Controller) *Handler {
	return &Handler{ctl: ctl}
}

// HandleOut executes a host-to-device request.
func (h *Handler) HandleOut(req uint8, value, index uint16, payload []byte) error {
	switch req {
	case ReqStart:
		return h.ctl.Start()
	case ReqStop:
		return h.ctl.Stop()
	case ReqClearOutBuffer:
		h.ctl.ClearOutBuffer()
		return nil
	case ReqSetOutBuffer:
		return h.ctl.SetOutBuffer(payload)
	case ReqScan:
		return h.ctl.Scan(int(value), index != ScanHoldState)
	case ReqRunClock:
		return h.ctl.RunClock(int(value), index != 0)
	case ReqGotoState:
		target := tap.State(value)
		if !target.Valid() {
			return fmt.Errorf("vendorlink: invalid target state %d", value)
		}
		return h.ctl.GotoState(target)
	default:
		return fmt.Errorf("vendorlink: unsupported OUT request 0x%02X", req)
	}
}

// HandleIn executes a device-to-host request and returns the response
// payload, at most length bytes.
func (h *Handler) HandleIn(req uint8, value, index uint16, length int) ([]byte, error) {
	switch req {
	case ReqGetInBuffer:
		return h.ctl.InBuffer(length), nil
	case ReqGetState:
		return []byte{byte(h.ctl.State())}, nil
	case ReqGetInfo:
		resp := make([]byte, InfoLength)
		binary.LittleEndian.PutUint32(resp[0:4], uint32(probe.BufferSize))
		binary.LittleEndian.PutUint32(resp[4:8], uint32(h.ctl.Quirks()))
		if length < len(resp) {
			resp = resp[:length]
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("vendorlink: unsupported IN request 0x%02X", req)
	}
}

// Loopback is an in-process Requester that feeds a Handler directly. It is
// the transport used by tests and by the CLI's simulator backend.
type Loopback struct {
	handler *Handler
}

// NewLoopback connects a requester straight to the given handler.
func NewLoopback(h *Handler) *Loopback {
	return &Loopback{handler: h}
}

func (l *Loopback) Out(req uint8, value, index uint16, payload []byte) error {
	return l.handler.HandleOut(req, value, index, payload)
}

func (l *Loopback) In(req uint8, value, index uint16, length int) ([]byte, error) {
	return l.handler.HandleIn(req, value, index, length)
}

func (l *Loopback) Close() error { return nil }
