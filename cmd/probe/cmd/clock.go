package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	clockCycles  int
	clockHoldTMS bool
)

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Run the TAP clock without shifting data",
	Long: `Tick TCK for a number of cycles with TDI low and TMS held at a fixed
level. Useful to let an in-progress FPGA configuration complete while
parked in Run-Test/Idle.`,
	RunE: runClock,
}

func init() {
	rootCmd.AddCommand(clockCmd)

	clockCmd.Flags().IntVar(&clockCycles, "cycles", 0, "number of TCK cycles (required)")
	clockCmd.Flags().BoolVar(&clockHoldTMS, "hold-tms", false, "hold TMS high for every cycle")
	clockCmd.MarkFlagRequired("cycles")
}

func runClock(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.RunClock(clockCycles, clockHoldTMS); err != nil {
		return err
	}
	state, err := client.State()
	if err != nil {
		return err
	}
	fmt.Printf("ran %d cycles, state: %s\n", clockCycles, state)
	return nil
}
