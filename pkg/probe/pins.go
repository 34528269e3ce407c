package probe

import "time"

// Pins abstracts the four raw TAP signal lines. Implementations map the
// calls onto GPIO registers, a remote protocol, or a simulation; they must
// not track TAP state themselves.
type Pins interface {
	// Claim configures the lines for TAP use: TCK/TDI/TMS as driven outputs
	// with TCK low, TDO as an input.
	Claim() error

	// Release returns all four lines to their idle, undriven configuration.
	Release() error

	SetTCK(level bool)
	SetTDI(level bool)
	SetTMS(level bool)

	// TDO samples the current level of the TDO line.
	TDO() bool
}

// Bitbang drives the TAP one clock cycle at a time. It is the only component
// that touches raw pin state on the slow path, and it never consults or
// mutates tracked TAP state; callers pair every Tick with exactly one state
// machine step.
type Bitbang struct {
	pins Pins

	// settle is the minimum delay between driving TDI/TMS and the clock
	// edge. Platforms whose inputs are continuously latched can leave it
	// zero; others need the half-period margin.
	settle time.Duration
}

// NewBitbang wraps the provided pins in a single-cycle TAP driver.
func NewBitbang(pins Pins, settle time.Duration) *Bitbang {
	return &Bitbang{pins: pins, settle: settle}
}

// Tick drives TDI and TMS to the requested levels, clocks TCK through one
// full cycle and returns the TDO level sampled before the rising edge, per
// the TAP electrical convention: the target latches TDI/TMS on the same edge
// that we sample its output.
func (b *Bitbang) Tick(tdi, tms bool) bool {
	b.pins.SetTMS(tms)
	b.pins.SetTDI(tdi)
	if b.settle > 0 {
		time.Sleep(b.settle)
	}

	b.pins.SetTCK(false)
	tdo := b.pins.TDO()
	b.pins.SetTCK(true)
	return tdo
}
