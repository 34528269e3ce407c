package svf

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Script is a parsed SVF program: a flat list of statements executed in
// order.
type Script struct {
	Commands []*Command `@@*`
}

// Command is one SVF statement of the supported subset.
type Command struct {
	State   *StateCommand   `  @@`
	RunTest *RunTestCommand `| @@`
	Shift   *ShiftCommand   `| @@`
}

// StateCommand forces the TAP into a named stable state.
// Example: STATE IDLE;
type StateCommand struct {
	Target string `KwState @Ident Semicolon`
}

// RunTestCommand clocks TCK in Run-Test/Idle for a cycle count.
// Example: RUNTEST 100 TCK;
type RunTestCommand struct {
	Cycles int `KwRunTest @Integer KwTCK Semicolon`
}

// ShiftCommand shifts a vector through the instruction or data register.
// Example: SDR 16 TDI (AA55) TDO (AA55) MASK (FFFF);
type ShiftCommand struct {
	IR   bool       `( @KwSIR | KwSDR )`
	Bits int        `@Integer`
	TDI  HexVector  `KwTDI @HexVector`
	TDO  *HexVector `( KwTDO @HexVector )?`
	Mask *HexVector `( KwMask @HexVector )? Semicolon`
}

// HexVector is a parenthesised hex scan vector. The textual value is
// big-endian, as written; Bytes converts it to the LSB-first byte order the
// scan buffers use.
type HexVector struct {
	digits string
}

// Capture strips the parentheses and interior whitespace off the raw token.
func (h *HexVector) Capture(values []string) error {
	text := strings.Join(values, "")
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")
	var b strings.Builder
	for _, r := range text {
		if strings.ContainsRune(" \t\r\n", r) {
			continue
		}
		b.WriteRune(r)
	}
	h.digits = b.String()
	if h.digits == "" {
		return fmt.Errorf("svf: empty scan vector")
	}
	return nil
}

// Bytes packs the vector for a scan of the given bit length: byte 0 holds
// the first-shifted (least significant) eight bits. An error is returned if
// the written value needs more bits than the shift provides.
func (h *HexVector) Bytes(bits int) ([]byte, error) {
	if bits <= 0 {
		return nil, fmt.Errorf("svf: vector for %d bits", bits)
	}

	digits := strings.TrimLeft(h.digits, "0")
	maxDigits := (bits + 3) / 4
	if len(digits) > maxDigits {
		return nil, fmt.Errorf("svf: vector %s does not fit in %d bits", h.digits, bits)
	}

	byteCount := (bits + 7) / 8
	padded := strings.Repeat("0", 2*byteCount-len(digits)) + digits
	decoded, err := hex.DecodeString(padded)
	if err != nil {
		return nil, fmt.Errorf("svf: bad scan vector %s: %w", h.digits, err)
	}

	// hex.DecodeString yields most-significant byte first; the scan engine
	// wants the least-significant byte shifted first.
	packed := make([]byte, byteCount)
	for i, b := range decoded {
		packed[byteCount-1-i] = b
	}
	return packed, nil
}

// String returns the vector as written, without parentheses.
func (h *HexVector) String() string {
	return h.digits
}
