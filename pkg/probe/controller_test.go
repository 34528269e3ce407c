package probe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

func newTestController(t *testing.T, opts ...Option) (*Controller, *LoopbackPins, *SimEngine) {
	t.Helper()
	pins := NewLoopbackPins()
	engine := NewSimEngine()
	ctl := New(pins, engine, opts...)
	if err := ctl.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	return ctl, pins, engine
}

func TestStartResetsState(t *testing.T) {
	ctl, pins, _ := newTestController(t)
	if !pins.Claimed() {
		t.Fatalf("pins not claimed after Start")
	}
	if ctl.State() != tap.StateTestLogicReset {
		t.Fatalf("state after Start = %s, want %s", ctl.State(), tap.StateTestLogicReset)
	}

	if err := ctl.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if pins.Claimed() {
		t.Fatalf("pins still claimed after Stop")
	}
}

func TestOperationsRequireStart(t *testing.T) {
	ctl := New(NewLoopbackPins(), NewSimEngine())
	if err := ctl.Scan(8, false); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Scan before Start = %v, want ErrNotStarted", err)
	}
	if err := ctl.RunClock(4, false); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("RunClock before Start = %v, want ErrNotStarted", err)
	}
	if err := ctl.GotoState(tap.StateShiftDR); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("GotoState before Start = %v, want ErrNotStarted", err)
	}
}

func TestGotoStateWalksPathTable(t *testing.T) {
	ctl, pins, _ := newTestController(t)

	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}
	if ctl.State() != tap.StateShiftDR {
		t.Fatalf("state = %s, want %s", ctl.State(), tap.StateShiftDR)
	}

	// Reset -> Idle -> Select-DR -> Capture-DR -> Shift-DR is the canonical
	// four-step walk.
	ticks := pins.Ticks()
	wantTMS := []bool{false, true, false, false}
	if len(ticks) != len(wantTMS) {
		t.Fatalf("tick count = %d, want %d", len(ticks), len(wantTMS))
	}
	for i, want := range wantTMS {
		if ticks[i].TMS != want {
			t.Fatalf("tick %d TMS = %v, want %v", i, ticks[i].TMS, want)
		}
		if ticks[i].TDI {
			t.Fatalf("tick %d drove TDI high during state walk", i)
		}
	}
}

func TestGotoStateResetIsFiveHighTicks(t *testing.T) {
	ctl, pins, _ := newTestController(t)
	if err := ctl.GotoState(tap.StatePauseIR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}
	pins.ResetTrace()

	if err := ctl.GotoState(tap.StateTestLogicReset); err != nil {
		t.Fatalf("GotoState reset returned error: %v", err)
	}
	if ctl.State() != tap.StateTestLogicReset {
		t.Fatalf("state = %s, want %s", ctl.State(), tap.StateTestLogicReset)
	}

	ticks := pins.Ticks()
	if len(ticks) != tap.ResetTicks {
		t.Fatalf("reset used %d ticks, want %d", len(ticks), tap.ResetTicks)
	}
	for i, tick := range ticks {
		if !tick.TMS {
			t.Fatalf("reset tick %d drove TMS low", i)
		}
	}
}

func TestGotoStateReachesEveryTarget(t *testing.T) {
	ctl, _, _ := newTestController(t)
	for target := tap.State(0); target < tap.NumStates; target++ {
		if err := ctl.GotoState(target); err != nil {
			t.Fatalf("GotoState(%s) returned error: %v", target, err)
		}
		if ctl.State() != target {
			t.Fatalf("state = %s, want %s", ctl.State(), target)
		}
	}
}

func TestRunClockHoldsTMS(t *testing.T) {
	ctl, pins, _ := newTestController(t)
	if err := ctl.GotoState(tap.StateRunTestIdle); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}
	pins.ResetTrace()

	if err := ctl.RunClock(7, false); err != nil {
		t.Fatalf("RunClock returned error: %v", err)
	}
	if ctl.State() != tap.StateRunTestIdle {
		t.Fatalf("idle clocking moved state to %s", ctl.State())
	}
	ticks := pins.Ticks()
	if len(ticks) != 7 {
		t.Fatalf("tick count = %d, want 7", len(ticks))
	}
	for i, tick := range ticks {
		if tick.TMS || tick.TDI {
			t.Fatalf("tick %d drove TMS=%v TDI=%v, want both low", i, tick.TMS, tick.TDI)
		}
	}

	// Holding TMS high must track the transition table as well.
	if err := ctl.RunClock(2, true); err != nil {
		t.Fatalf("RunClock returned error: %v", err)
	}
	if want := tap.StateSelectIRScan; ctl.State() != want {
		t.Fatalf("state after 2 TMS=1 clocks = %s, want %s", ctl.State(), want)
	}
}

func TestScanRoundTripAligned(t *testing.T) {
	ctl, _, engine := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}

	if err := ctl.SetOutBuffer([]byte{0xAA, 0x55}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	if err := ctl.Scan(16, false); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if got := ctl.InBuffer(2); !bytes.Equal(got, []byte{0xAA, 0x55}) {
		t.Fatalf("IN buffer = %X, want AA55", got)
	}
	if ctl.State() != tap.StateShiftDR {
		t.Fatalf("aligned non-advancing scan moved state to %s", ctl.State())
	}
	if engine.Exchanges() != 1 {
		t.Fatalf("exchanges = %d, want 1 (pure block path)", engine.Exchanges())
	}
}

func TestScanRoundTripMixed(t *testing.T) {
	ctl, _, engine := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}

	// 12 bits: one block byte plus a 4-bit bit-banged tail, right-justified.
	if err := ctl.SetOutBuffer([]byte{0xA5, 0x0B}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	if err := ctl.Scan(12, false); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if got := ctl.InBuffer(2); !bytes.Equal(got, []byte{0xA5, 0x0B}) {
		t.Fatalf("IN buffer = %X, want A50B", got)
	}
	if engine.Exchanges() != 1 {
		t.Fatalf("exchanges = %d, want 1", engine.Exchanges())
	}
	if ctl.State() != tap.StateShiftDR {
		t.Fatalf("non-advancing scan moved state to %s", ctl.State())
	}
}

func TestScanShortBitBangOnly(t *testing.T) {
	ctl, _, engine := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}

	if err := ctl.SetOutBuffer([]byte{0x15}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	if err := ctl.Scan(5, false); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if got := ctl.InBuffer(1); !bytes.Equal(got, []byte{0x15}) {
		t.Fatalf("IN buffer = %X, want 15", got)
	}
	if engine.Exchanges() != 0 {
		t.Fatalf("short scan used the block path")
	}
}

func TestScanAdvanceLeavesShiftState(t *testing.T) {
	ctl, _, _ := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}

	if err := ctl.SetOutBuffer([]byte{0x0F}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	if err := ctl.Scan(4, true); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if want := tap.StateExit1DR; ctl.State() != want {
		t.Fatalf("state after advancing scan = %s, want %s", ctl.State(), want)
	}
}

func TestScanAdvanceAlignedReclassifiesFinalByte(t *testing.T) {
	ctl, pins, engine := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftIR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}
	pins.ResetTrace()

	if err := ctl.SetOutBuffer([]byte{0x12, 0x34}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	if err := ctl.Scan(16, true); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	// One byte via the engine, the final byte bit-banged so its last bit can
	// carry TMS.
	if got := engine.Wire(); !bytes.Equal(got, []byte{0x12}) {
		t.Fatalf("wire bytes = %X, want 12", got)
	}
	ticks := pins.Ticks()
	if len(ticks) != 8 {
		t.Fatalf("bit-banged ticks = %d, want 8", len(ticks))
	}
	for i, tick := range ticks[:7] {
		if tick.TMS {
			t.Fatalf("tick %d drove TMS high before the final bit", i)
		}
	}
	if !ticks[7].TMS {
		t.Fatalf("final tick did not drive TMS high")
	}

	if got := ctl.InBuffer(2); !bytes.Equal(got, []byte{0x12, 0x34}) {
		t.Fatalf("IN buffer = %X, want 1234", got)
	}
	if want := tap.StateExit1IR; ctl.State() != want {
		t.Fatalf("state = %s, want %s", ctl.State(), want)
	}
}

func TestScanSingleBitAdvance(t *testing.T) {
	ctl, pins, engine := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}
	pins.ResetTrace()

	if err := ctl.SetOutBuffer([]byte{0x01}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	if err := ctl.Scan(1, true); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	ticks := pins.Ticks()
	if len(ticks) != 1 {
		t.Fatalf("tick count = %d, want exactly 1", len(ticks))
	}
	if !ticks[0].TMS {
		t.Fatalf("single advancing bit drove TMS low")
	}
	if engine.Exchanges() != 0 {
		t.Fatalf("single-bit scan used the block path")
	}
	if want := tap.StateExit1DR; ctl.State() != want {
		t.Fatalf("state = %s, want %s", ctl.State(), want)
	}
	if got := ctl.InBuffer(1); !bytes.Equal(got, []byte{0x01}) {
		t.Fatalf("IN buffer = %X, want 01", got)
	}
}

func TestScanRejectionsAreSideEffectFree(t *testing.T) {
	ctl, pins, engine := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}
	if err := ctl.SetOutBuffer([]byte{0xEE}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	if err := ctl.Scan(8, false); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	pins.ResetTrace()
	before := ctl.State()

	if err := ctl.Scan(0, false); !errors.Is(err, ErrZeroLengthScan) {
		t.Fatalf("Scan(0) = %v, want ErrZeroLengthScan", err)
	}

	var capErr *CapacityError
	if err := ctl.Scan(BufferSize*8+1, false); !errors.As(err, &capErr) {
		t.Fatalf("oversized scan = %v, want CapacityError", err)
	}

	if ctl.State() != before {
		t.Fatalf("rejected scans moved state %s -> %s", before, ctl.State())
	}
	if len(pins.Ticks()) != 0 {
		t.Fatalf("rejected scans drove %d clock edges", len(pins.Ticks()))
	}
	if engine.Exchanges() != 1 {
		t.Fatalf("rejected scans reached the block path")
	}
	if got := ctl.InBuffer(1); !bytes.Equal(got, []byte{0xEE}) {
		t.Fatalf("rejected scans overwrote IN buffer: %X", got)
	}
}

func TestScanEngineBusyFailsRequestOnly(t *testing.T) {
	ctl, _, engine := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}
	before := ctl.State()

	engine.Busy = true
	if err := ctl.SetOutBuffer([]byte{0x11, 0x22}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	if err := ctl.Scan(16, false); !errors.Is(err, ErrEngineBusy) {
		t.Fatalf("Scan with busy engine = %v, want ErrEngineBusy", err)
	}
	if ctl.State() != before {
		t.Fatalf("failed block transfer moved state to %s", ctl.State())
	}
	if engine.Acquired() {
		t.Fatalf("pin function not restored after failed exchange")
	}

	// The controller stays usable.
	engine.Busy = false
	if err := ctl.Scan(16, false); err != nil {
		t.Fatalf("Scan after recovery returned error: %v", err)
	}
}

func TestSetOutBufferCapacity(t *testing.T) {
	ctl, _, _ := newTestController(t)
	var capErr *CapacityError
	if err := ctl.SetOutBuffer(make([]byte, BufferSize+1)); !errors.As(err, &capErr) {
		t.Fatalf("oversized SetOutBuffer = %v, want CapacityError", err)
	}
	if err := ctl.SetOutBuffer(make([]byte, BufferSize)); err != nil {
		t.Fatalf("full-size SetOutBuffer returned error: %v", err)
	}
}

func TestClearOutBufferZeroes(t *testing.T) {
	ctl, _, _ := newTestController(t)
	if err := ctl.GotoState(tap.StateShiftDR); err != nil {
		t.Fatalf("GotoState returned error: %v", err)
	}
	if err := ctl.SetOutBuffer([]byte{0xFF, 0xFF}); err != nil {
		t.Fatalf("SetOutBuffer returned error: %v", err)
	}
	ctl.ClearOutBuffer()
	if err := ctl.Scan(16, false); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if got := ctl.InBuffer(2); !bytes.Equal(got, []byte{0x00, 0x00}) {
		t.Fatalf("IN buffer after cleared scan = %X, want 0000", got)
	}
}

func TestInBufferClampsLength(t *testing.T) {
	ctl, _, _ := newTestController(t)
	if got := ctl.InBuffer(BufferSize + 32); len(got) != BufferSize {
		t.Fatalf("InBuffer length = %d, want %d", len(got), BufferSize)
	}
	if got := ctl.InBuffer(-1); len(got) != 0 {
		t.Fatalf("InBuffer(-1) length = %d, want 0", len(got))
	}
}
