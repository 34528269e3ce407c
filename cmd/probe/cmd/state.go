package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read the current TAP state",
	RunE:  runState,
}

var gotoCmd = &cobra.Command{
	Use:   "goto <state>",
	Short: "Walk the TAP to a named state",
	Long: `Walk the TAP to a named state along the canonical traversal order.

State names match the IEEE 1149.1 diagram, e.g. TestLogicReset,
RunTestIdle, ShiftDR, ShiftIR, PauseDR. Matching is case-insensitive.`,
	Args: cobra.ExactArgs(1),
	RunE: runGoto,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(gotoCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	state, err := client.State()
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d)\n", state, uint8(state))
	return nil
}

func runGoto(cmd *cobra.Command, args []string) error {
	target, err := tap.ParseState(args[0])
	if err != nil {
		return err
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.GotoState(target); err != nil {
		return err
	}
	state, err := client.State()
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", state)
	return nil
}
