package svf

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

// Probe is the slice of the vendor command surface the player drives.
// *vendorlink.Client satisfies it.
type Probe interface {
	GotoState(target tap.State) error
	RunClock(cycles int, holdTMS bool) error
	ScanBytes(data []byte, bits int, advance bool) ([]byte, error)
}

// stableStates maps SVF stable-state names onto TAP states.
var stableStates = map[string]tap.State{
	"RESET":   tap.StateTestLogicReset,
	"IDLE":    tap.StateRunTestIdle,
	"DRPAUSE": tap.StatePauseDR,
	"IRPAUSE": tap.StatePauseIR,
	"DRSHIFT": tap.StateShiftDR,
	"IRSHIFT": tap.StateShiftIR,
}

// Player executes parsed SVF scripts against a probe.
type Player struct {
	probe Probe
}

// NewPlayer builds a player over the given probe.
func NewPlayer(p Probe) *Player {
	return &Player{probe: p}
}

// Run executes every statement of the script in order. Execution stops at
// the first failure, including a TDO comparison mismatch.
func (p *Player) Run(script *Script) error {
	for i, cmd := range script.Commands {
		if err := p.run(cmd); err != nil {
			return fmt.Errorf("svf: statement %d: %w", i+1, err)
		}
	}
	return nil
}

func (p *Player) run(cmd *Command) error {
	switch {
	case cmd.State != nil:
		target, ok := stableStates[cmd.State.Target]
		if !ok {
			return fmt.Errorf("unknown stable state %q", cmd.State.Target)
		}
		return p.probe.GotoState(target)

	case cmd.RunTest != nil:
		if err := p.probe.GotoState(tap.StateRunTestIdle); err != nil {
			return err
		}
		return p.probe.RunClock(cmd.RunTest.Cycles, false)

	case cmd.Shift != nil:
		return p.shift(cmd.Shift)

	default:
		return fmt.Errorf("empty statement")
	}
}

// shift runs an SIR/SDR statement: walk into the shift state, scan with the
// FSM advancing on the last bit, verify TDO if requested, and settle back in
// Run-Test/Idle (the default ENDIR/ENDDR state).
func (p *Player) shift(cmd *ShiftCommand) error {
	shiftState := tap.StateShiftDR
	if cmd.IR {
		shiftState = tap.StateShiftIR
	}

	tdi, err := cmd.TDI.Bytes(cmd.Bits)
	if err != nil {
		return err
	}

	if err := p.probe.GotoState(shiftState); err != nil {
		return err
	}
	got, err := p.probe.ScanBytes(tdi, cmd.Bits, true)
	if err != nil {
		return err
	}

	if cmd.TDO != nil {
		if err := compareTDO(got, cmd, cmd.Bits); err != nil {
			return err
		}
	}

	return p.probe.GotoState(tap.StateRunTestIdle)
}

func compareTDO(got []byte, cmd *ShiftCommand, bits int) error {
	want, err := cmd.TDO.Bytes(bits)
	if err != nil {
		return err
	}

	mask := make([]byte, len(want))
	for i := range mask {
		mask[i] = 0xFF
	}
	// Trim the unused high bits of the final byte.
	if rem := bits % 8; rem != 0 {
		mask[len(mask)-1] = byte(1<<uint(rem)) - 1
	}
	if cmd.Mask != nil {
		m, err := cmd.Mask.Bytes(bits)
		if err != nil {
			return err
		}
		for i := range mask {
			mask[i] &= m[i]
		}
	}

	for i := range want {
		g := byte(0)
		if i < len(got) {
			g = got[i]
		}
		if g&mask[i] != want[i]&mask[i] {
			return fmt.Errorf("TDO mismatch at byte %d: got %02X, want %02X (mask %02X)",
				i, g, want[i], mask[i])
		}
	}
	return nil
}
