package vendorlink

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

// Info describes a probe's JTAG implementation as reported by GetInfo.
type Info struct {
	// BufferBytes is the scan buffer capacity in bytes.
	BufferBytes int
	// Quirks is the board's quirk bitfield.
	Quirks probe.Quirk
}

// Client is a typed wrapper over the raw vendor requests, one method per
// operation of the command surface.
type Client struct {
	r Requester
}

// NewClient builds a client over any transport.
func NewClient(r Requester) *Client {
	return &Client{r: r}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.r.Close()
}

// Start initializes the probe's TAP: pins claimed, state forced to
// Test-Logic-Reset.
func (c *Client) Start() error {
	return c.r.Out(ReqStart, 0, 0, nil)
}

// Stop releases the probe's pins so the scan chain is no longer driven.
func (c *Client) Stop() error {
	return c.r.Out(ReqStop, 0, 0, nil)
}

// SetOutBuffer uploads the data to be transmitted by the next scan.
func (c *Client) SetOutBuffer(data []byte) error {
	if len(data) > math.MaxUint16 {
		return fmt.Errorf("vendorlink: payload of %d bytes exceeds transfer limit", len(data))
	}
	return c.r.Out(ReqSetOutBuffer, 0, 0, data)
}

// ClearOutBuffer zeroes the probe's entire OUT buffer.
func (c *Client) ClearOutBuffer() error {
	return c.r.Out(ReqClearOutBuffer, 0, 0, nil)
}

// InBuffer fetches the leading length bytes of the IN buffer, the result of
// the most recent scan.
func (c *Client) InBuffer(length int) ([]byte, error) {
	return c.r.In(ReqGetInBuffer, 0, 0, length)
}

// Scan shifts bits bits between the probe's OUT and IN buffers. With
// advance set the TAP leaves its shift state on the final bit.
func (c *Client) Scan(bits int, advance bool) error {
	if bits < 0 || bits > math.MaxUint16 {
		return fmt.Errorf("vendorlink: bit count %d does not fit the 16-bit field", bits)
	}
	index := ScanHoldState
	if advance {
		index = ScanAdvanceState
	}
	return c.r.Out(ReqScan, uint16(bits), index, nil)
}

// ScanBytes is the combined upload-scan-readback flow: it sets the OUT
// buffer to data, scans bits bits and returns the received bits, byte
// packed.
func (c *Client) ScanBytes(data []byte, bits int, advance bool) ([]byte, error) {
	if err := c.SetOutBuffer(data); err != nil {
		return nil, err
	}
	if err := c.Scan(bits, advance); err != nil {
		return nil, err
	}
	return c.InBuffer((bits + 7) / 8)
}

// RunClock ticks the TAP clock for cycles cycles with TMS held at holdTMS.
func (c *Client) RunClock(cycles int, holdTMS bool) error {
	if cycles < 0 || cycles > math.MaxUint16 {
		return fmt.Errorf("vendorlink: cycle count %d does not fit the 16-bit field", cycles)
	}
	var index uint16
	if holdTMS {
		index = 1
	}
	return c.r.Out(ReqRunClock, uint16(cycles), index, nil)
}

// GotoState walks the probe's TAP to the target state.
func (c *Client) GotoState(target tap.State) error {
	if !target.Valid() {
		return fmt.Errorf("vendorlink: invalid target state %d", target)
	}
	return c.r.Out(ReqGotoState, uint16(target), 0, nil)
}

// State reads back the probe's current TAP state.
func (c *Client) State() (tap.State, error) {
	resp, err := c.r.In(ReqGetState, 0, 0, 1)
	if err != nil {
		return 0, err
	}
	if len(resp) != 1 {
		return 0, fmt.Errorf("vendorlink: GetState returned %d bytes, want 1", len(resp))
	}
	state := tap.State(resp[0])
	if !state.Valid() {
		return 0, fmt.Errorf("vendorlink: GetState returned invalid state %d", resp[0])
	}
	return state, nil
}

// Info reads the probe's buffer capacity and quirk bits.
func (c *Client) Info() (Info, error) {
	resp, err := c.r.In(ReqGetInfo, 0, 0, InfoLength)
	if err != nil {
		return Info{}, err
	}
	if len(resp) != InfoLength {
		return Info{}, fmt.Errorf("vendorlink: GetInfo returned %d bytes, want %d", len(resp), InfoLength)
	}
	return Info{
		BufferBytes: int(binary.LittleEndian.Uint32(resp[0:4])),
		Quirks:      probe.Quirk(binary.LittleEndian.Uint32(resp[4:8])),
	}, nil
}
