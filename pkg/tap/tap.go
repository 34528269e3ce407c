// Package tap models the IEEE 1149.1 Test Access Port controller state
// machine. It is pure state-transition logic: it performs no I/O, and the
// caller is responsible for actually clocking the TMS values it computes onto
// a physical (or simulated) scan chain.
package tap

import (
	"fmt"
	"strings"
)

// State represents one of the 16 defined IEEE 1149.1 TAP controller states.
// The numeric values match the wire encoding used by the vendor command
// surface (GetState/GotoState), so they must not be reordered.
type State uint8

const (
	StateTestLogicReset State = iota
	StateRunTestIdle
	StateSelectDRScan
	StateCaptureDR
	StateShiftDR
	StateExit1DR
	StatePauseDR
	StateExit2DR
	StateUpdateDR
	StateSelectIRScan
	StateCaptureIR
	StateShiftIR
	StateExit1IR
	StatePauseIR
	StateExit2IR
	StateUpdateIR

	// NumStates is the number of defined TAP states. The set is closed; the
	// tables below are sized by it.
	NumStates = 16
)

var stateNames = [NumStates]string{
	StateTestLogicReset: "TestLogicReset",
	StateRunTestIdle:    "RunTestIdle",
	StateSelectDRScan:   "SelectDRScan",
	StateCaptureDR:      "CaptureDR",
	StateShiftDR:        "ShiftDR",
	StateExit1DR:        "Exit1DR",
	StatePauseDR:        "PauseDR",
	StateExit2DR:        "Exit2DR",
	StateUpdateDR:       "UpdateDR",
	StateSelectIRScan:   "SelectIRScan",
	StateCaptureIR:      "CaptureIR",
	StateShiftIR:        "ShiftIR",
	StateExit1IR:        "Exit1IR",
	StatePauseIR:        "PauseIR",
	StateExit2IR:        "Exit2IR",
	StateUpdateIR:       "UpdateIR",
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Valid reports whether s is one of the 16 defined TAP states.
func (s State) Valid() bool {
	return s < NumStates
}

// ParseState resolves a state name as produced by State.String. Matching is
// case-insensitive.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("tap: unknown state %q", name)
}

// transitions is the TAP successor table: transitions[s][0] is the state
// reached from s by clocking TCK with TMS low, transitions[s][1] with TMS
// high. Taken directly from the IEEE 1149.1 state diagram.
var transitions = [NumStates][2]State{
	StateTestLogicReset: {StateRunTestIdle, StateTestLogicReset},
	StateRunTestIdle:    {StateRunTestIdle, StateSelectDRScan},
	StateSelectDRScan:   {StateCaptureDR, StateSelectIRScan},
	StateCaptureDR:      {StateShiftDR, StateExit1DR},
	StateShiftDR:        {StateShiftDR, StateExit1DR},
	StateExit1DR:        {StatePauseDR, StateUpdateDR},
	StatePauseDR:        {StatePauseDR, StateExit2DR},
	StateExit2DR:        {StateShiftDR, StateUpdateDR},
	StateUpdateDR:       {StateRunTestIdle, StateSelectDRScan},
	StateSelectIRScan:   {StateCaptureIR, StateTestLogicReset},
	StateCaptureIR:      {StateShiftIR, StateExit1IR},
	StateShiftIR:        {StateShiftIR, StateExit1IR},
	StateExit1IR:        {StatePauseIR, StateUpdateIR},
	StatePauseIR:        {StatePauseIR, StateExit2IR},
	StateExit2IR:        {StateShiftIR, StateUpdateIR},
	StateUpdateIR:       {StateRunTestIdle, StateSelectDRScan},
}

// pathTMS encodes, for each current state, the TMS value that moves one step
// closer to each possible target along the canonical traversal order: bit t
// of pathTMS[s] is the TMS to drive from state s when heading for state t.
// Iterating the lookup converges on any target within NumStates-1 steps.
var pathTMS = [NumStates]uint16{
	StateTestLogicReset: 0x0001,
	StateRunTestIdle:    0xFFFD,
	StateSelectDRScan:   0xFE03,
	StateCaptureDR:      0xFFE7,
	StateShiftDR:        0xFFEF,
	StateExit1DR:        0xFF0F,
	StatePauseDR:        0xFFBF,
	StateExit2DR:        0xFF0F,
	StateUpdateDR:       0xFEFD,
	StateSelectIRScan:   0x01FF,
	StateCaptureIR:      0xF3FF,
	StateShiftIR:        0xF7FF,
	StateExit1IR:        0x87FF,
	StatePauseIR:        0xDFFF,
	StateExit2IR:        0x87FF,
	StateUpdateIR:       0x7FFD,
}

// Next returns the TAP state reached from current after one TCK cycle with
// the provided TMS value. It panics on an out-of-range state, which cannot
// happen when interacting through the exported API.
func Next(current State, tms bool) State {
	if !current.Valid() {
		panic(fmt.Sprintf("tap: unhandled state %d", current))
	}
	if tms {
		return transitions[current][1]
	}
	return transitions[current][0]
}

// StepToward returns the TMS value to clock from the current state in order
// to move one transition closer to the target state.
func StepToward(current, target State) bool {
	if !current.Valid() || !target.Valid() {
		panic(fmt.Sprintf("tap: unhandled transition %d -> %d", current, target))
	}
	return pathTMS[current]>>uint(target)&1 != 0
}

// ResetTicks is the number of consecutive TMS=1 clocks guaranteed to bring
// the TAP to Test-Logic-Reset from any state, including an unknown one.
const ResetTicks = 5

// Machine tracks the TAP controller state locally. It performs no I/O; the
// caller must already have clocked the physical TMS line with the value it
// passes to Step, exactly once per driven edge.
type Machine struct {
	state State
}

// NewMachine creates a TAP state machine initialized to Test-Logic-Reset.
func NewMachine() *Machine {
	return &Machine{state: StateTestLogicReset}
}

// Current reports the state the machine believes the TAP is in.
func (m *Machine) Current() State {
	return m.state
}

// Step advances the machine one TCK cycle with the provided TMS bit and
// returns the new state.
func (m *Machine) Step(tms bool) State {
	m.state = Next(m.state, tms)
	return m.state
}

// Force overrides the tracked state without clocking. It exists for
// controller initialization, where the physical TAP is known to have been
// reset out-of-band.
func (m *Machine) Force(s State) {
	m.state = s
}
