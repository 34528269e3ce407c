package probe

import (
	"fmt"
	"time"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

// BufferSize is the capacity, in bytes, of the scan OUT and IN buffers.
const BufferSize = 256

// Controller owns the TAP: the scan buffers, the tracked state machine and
// both execution paths. It is not safe for concurrent use; the host
// request/response protocol is half-duplex, so callers are naturally
// serialized.
type Controller struct {
	pins    Pins
	engine  ShiftEngine
	bits    *Bitbang
	machine *tap.Machine
	quirks  Quirk
	settle  time.Duration

	out     [BufferSize]byte
	in      [BufferSize]byte
	started bool
}

// New builds a controller over the provided pin and shift-engine backends.
// The controller is idle until Start is called.
func New(pins Pins, engine ShiftEngine, opts ...Option) *Controller {
	c := &Controller{
		pins:    pins,
		engine:  engine,
		machine: tap.NewMachine(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bits = NewBitbang(pins, c.settle)
	return c
}

// Quirks reports the board quirk bits the controller was built with.
func (c *Controller) Quirks() Quirk {
	return c.quirks
}

// State reports the current tracked TAP state.
func (c *Controller) State() tap.State {
	return c.machine.Current()
}

// Start claims the TAP pins and resets the tracked state to
// Test-Logic-Reset. It may be called again after Stop, or to recover from a
// failed block transfer.
func (c *Controller) Start() error {
	if err := c.pins.Claim(); err != nil {
		return fmt.Errorf("probe: claiming pins: %w", err)
	}
	c.machine.Force(tap.StateTestLogicReset)
	c.started = true
	return nil
}

// Stop releases the pins so the scan chain is no longer driven.
func (c *Controller) Stop() error {
	c.started = false
	if err := c.pins.Release(); err != nil {
		return fmt.Errorf("probe: releasing pins: %w", err)
	}
	return nil
}

// SetOutBuffer overwrites the leading len(data) bytes of the OUT buffer,
// the data transmitted by the next scan.
func (c *Controller) SetOutBuffer(data []byte) error {
	if len(data) > BufferSize {
		return &CapacityError{RequestedBytes: len(data), CapacityBytes: BufferSize}
	}
	copy(c.out[:], data)
	return nil
}

// ClearOutBuffer zeroes the entire OUT buffer.
func (c *Controller) ClearOutBuffer() {
	c.out = [BufferSize]byte{}
}

// InBuffer returns a copy of the leading length bytes of the IN buffer, the
// data received during the most recent scan. Requests beyond the buffer's
// capacity are clamped to what exists.
func (c *Controller) InBuffer(length int) []byte {
	if length < 0 {
		length = 0
	}
	if length > BufferSize {
		length = BufferSize
	}
	return append([]byte(nil), c.in[:length]...)
}

// tick drives one bit-banged clock cycle and advances the tracked state in
// lockstep, the one-step-per-edge contract.
func (c *Controller) tick(tdi, tms bool) bool {
	tdo := c.bits.Tick(tdi, tms)
	c.machine.Step(tms)
	return tdo
}

// Scan shifts bitCount bits from the OUT buffer through the TAP while
// capturing the same number of bits into the IN buffer, byte-packed LSB
// first. With advance set, TMS is raised on the final bit so the TAP leaves
// its shift state (Shift-DR -> Exit1-DR and the IR equivalent).
//
// Whole bytes that need no state transition travel through the shift engine;
// the remainder, and always the state-advancing bit, are bit-banged. A
// rejected scan leaves TAP state and both buffers unmodified.
func (c *Controller) Scan(bitCount int, advance bool) error {
	if !c.started {
		return ErrNotStarted
	}
	if bitCount <= 0 {
		return ErrZeroLengthScan
	}

	fullBytes := bitCount / 8
	tailBits := bitCount % 8

	if needed := (bitCount + 7) / 8; needed > BufferSize {
		return &CapacityError{RequestedBytes: needed, CapacityBytes: BufferSize}
	}

	// The engine never touches TMS, so the FSM-advancing bit must always be
	// bit-banged. With a byte-aligned count, reclassify the final byte as
	// tail.
	if advance && tailBits == 0 {
		fullBytes--
		tailBits = 8
	}

	if fullBytes > 0 {
		if err := c.exchangeBlock(fullBytes); err != nil {
			return err
		}
	}

	if tailBits > 0 {
		c.shiftTail(fullBytes, tailBits, advance)
	}
	return nil
}

// exchangeBlock moves fullBytes whole bytes through the shift engine,
// compensating for an MSB-first peripheral when the board declares the
// bit-order quirk.
func (c *Controller) exchangeBlock(fullBytes int) error {
	txBuf := c.out[:fullBytes]
	if c.quirks.Has(QuirkFlipBytesInBlock) {
		flipped := make([]byte, fullBytes)
		reverseBytes(flipped, txBuf)
		txBuf = flipped
	}

	if err := c.engine.Acquire(); err != nil {
		return fmt.Errorf("probe: acquiring shift engine: %w", err)
	}
	err := c.engine.Exchange(txBuf, c.in[:fullBytes])
	if rerr := c.engine.Release(); rerr != nil && err == nil {
		err = fmt.Errorf("probe: releasing shift engine: %w", rerr)
	}
	if err != nil {
		return err
	}

	if c.quirks.Has(QuirkFlipBytesInBlock) {
		reverseBytes(c.in[:fullBytes], c.in[:fullBytes])
	}
	return nil
}

// shiftTail bit-bangs the final tailBits bits of a scan, LSB first, raising
// TMS on the very last tick when the scan advances the FSM. The captured
// bits land right-justified in the IN buffer's tail byte.
func (c *Controller) shiftTail(offset, tailBits int, advance bool) {
	byteOut := c.out[offset]
	var tdoByte byte
	for j := 0; j < tailBits; j++ {
		tms := advance && j == tailBits-1
		tdo := c.tick(byteOut&1 != 0, tms)
		byteOut >>= 1
		if tdo {
			tdoByte |= 1 << uint(j)
		}
	}
	c.in[offset] = tdoByte
}

// RunClock ticks the TAP clock for the requested number of cycles with TDI
// low and TMS fixed at holdTMS, advancing the tracked state on every edge.
// Used for idle-clocking, e.g. to let an in-progress FPGA configuration
// complete.
func (c *Controller) RunClock(cycles int, holdTMS bool) error {
	if !c.started {
		return ErrNotStarted
	}
	for i := 0; i < cycles; i++ {
		c.tick(false, holdTMS)
	}
	return nil
}

// GotoState walks the TAP to the target state, one path-table step per
// clock, driving TDI low throughout. Test-Logic-Reset is special-cased as
// five consecutive TMS=1 ticks, which self-synchronizes from any state,
// including one the tracker has lost.
func (c *Controller) GotoState(target tap.State) error {
	if !c.started {
		return ErrNotStarted
	}
	if !target.Valid() {
		return fmt.Errorf("probe: invalid target state %d", target)
	}

	if target == tap.StateTestLogicReset {
		for i := 0; i < tap.ResetTicks; i++ {
			c.tick(false, true)
		}
		return nil
	}

	for c.machine.Current() != target {
		c.tick(false, tap.StepToward(c.machine.Current(), target))
	}
	return nil
}
