package probe

import "fmt"

// Tick records the TDI/TMS levels present on a rising TCK edge.
type Tick struct {
	TDI bool
	TMS bool
}

// LoopbackPins is an in-memory Pins implementation with TDO wired back to
// TDI, the classic scan-chain test harness. Every rising clock edge is
// recorded so tests can assert on exactly what was driven.
type LoopbackPins struct {
	tck, tdi, tms bool
	claimed       bool
	ticks         []Tick
}

// NewLoopbackPins constructs an unclaimed loopback harness.
func NewLoopbackPins() *LoopbackPins {
	return &LoopbackPins{}
}

func (l *LoopbackPins) Claim() error {
	l.claimed = true
	l.tck = false
	return nil
}

func (l *LoopbackPins) Release() error {
	l.claimed = false
	return nil
}

func (l *LoopbackPins) SetTCK(level bool) {
	if level && !l.tck {
		l.ticks = append(l.ticks, Tick{TDI: l.tdi, TMS: l.tms})
	}
	l.tck = level
}

func (l *LoopbackPins) SetTDI(level bool) { l.tdi = level }
func (l *LoopbackPins) SetTMS(level bool) { l.tms = level }

// TDO reflects the driven TDI level, emulating a zero-length chain with its
// output looped straight back to its input.
func (l *LoopbackPins) TDO() bool { return l.tdi }

// Claimed reports whether the lines are currently configured for TAP use.
func (l *LoopbackPins) Claimed() bool { return l.claimed }

// Ticks returns a copy of every rising-edge record since construction.
func (l *LoopbackPins) Ticks() []Tick {
	return append([]Tick(nil), l.ticks...)
}

// ResetTrace discards the recorded tick history.
func (l *LoopbackPins) ResetTrace() {
	l.ticks = nil
}

// SimEngine is an in-memory ShiftEngine modelling a full-duplex byte
// peripheral on a looped-back wire: every transmitted byte is received
// unchanged. The bytes are additionally recorded in transmission order, so
// tests of the bit-order quirk can observe what actually crossed the wire.
type SimEngine struct {
	// Busy, when set, makes Exchange report ErrEngineBusy, emulating a
	// peripheral that never became ready within its cycle budget.
	Busy bool

	acquired  bool
	wire      []byte
	exchanges int
}

// NewSimEngine constructs an idle simulated shift engine.
func NewSimEngine() *SimEngine {
	return &SimEngine{}
}

func (e *SimEngine) Acquire() error {
	if e.acquired {
		return fmt.Errorf("probe: shift engine already acquired")
	}
	e.acquired = true
	return nil
}

func (e *SimEngine) Release() error {
	if !e.acquired {
		return fmt.Errorf("probe: shift engine not acquired")
	}
	e.acquired = false
	return nil
}

func (e *SimEngine) Exchange(out, in []byte) error {
	if !e.acquired {
		return fmt.Errorf("probe: exchange without acquired pin function")
	}
	if e.Busy {
		return ErrEngineBusy
	}
	if len(in) < len(out) {
		return fmt.Errorf("probe: receive buffer too short: %d < %d", len(in), len(out))
	}

	e.wire = append(e.wire, out...)
	copy(in, out)
	e.exchanges++
	return nil
}

// Wire returns a copy of every byte transmitted, in wire order.
func (e *SimEngine) Wire() []byte {
	return append([]byte(nil), e.wire...)
}

// Exchanges reports how many block transfers have completed.
func (e *SimEngine) Exchanges() int { return e.exchanges }

// Acquired reports whether the engine currently owns the pin function.
func (e *SimEngine) Acquired() bool { return e.acquired }
