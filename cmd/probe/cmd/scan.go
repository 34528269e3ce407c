package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

var (
	scanBits    int
	scanData    string
	scanAdvance bool
	scanIR      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Shift bits through the scan chain",
	Long: `Shift a bit vector through the TAP's data (or instruction) register
and print what came back.

The data is hex, least-significant byte first, matching the shift order.
Bit counts need not be byte-aligned; the final partial byte's value sits in
its low-order bits.

Examples:
  probe scan --bits 16 --data AA55
  probe scan --bits 5 --data 15 --advance
  probe scan --bits 8 --data AB --ir --advance`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&scanBits, "bits", 0, "number of bits to scan (required)")
	scanCmd.Flags().StringVar(&scanData, "data", "", "hex bytes to transmit, LSB first")
	scanCmd.Flags().BoolVar(&scanAdvance, "advance", false, "advance the TAP FSM on the final bit")
	scanCmd.Flags().BoolVar(&scanIR, "ir", false, "scan through Shift-IR instead of Shift-DR")
	scanCmd.MarkFlagRequired("bits")
}

func runScan(cmd *cobra.Command, args []string) error {
	data, err := hex.DecodeString(scanData)
	if err != nil {
		return fmt.Errorf("decoding --data: %w", err)
	}
	if need := (scanBits + 7) / 8; len(data) < need {
		return fmt.Errorf("--data supplies %d bytes, %d bits need %d", len(data), scanBits, need)
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	shiftState := tap.StateShiftDR
	if scanIR {
		shiftState = tap.StateShiftIR
	}
	if err := client.GotoState(shiftState); err != nil {
		return err
	}

	got, err := client.ScanBytes(data, scanBits, scanAdvance)
	if err != nil {
		return err
	}

	state, err := client.State()
	if err != nil {
		return err
	}
	fmt.Printf("tdo: %X\n", got)
	fmt.Printf("state: %s\n", state)
	return nil
}
