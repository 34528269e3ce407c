package cmd

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Global flags
	verbose     bool
	backendName string
	usbVID      uint16
	usbPID      uint16
	flipQuirk   bool
	settleDelay time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "FPGA JTAG probe controller",
	Long: `Drives an attached FPGA's JTAG configuration/debug chain through a
host-controlled probe: TAP state walking, arbitrary-bit-count scans and
idle clocking, over USB or against the built-in loopback simulator.

Examples:
  probe state                                  # Read the TAP state (simulator)
  probe goto ShiftDR --backend usb             # Walk a real probe's TAP
  probe scan --bits 16 --data AA55             # Loopback scan 16 bits
  probe clock --cycles 1000                    # Run the idle clock
  probe play config.svf                        # Play back an SVF script`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			log.SetFormatter(&log.TextFormatter{DisableColors: true})
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", "simulator",
		"probe backend (simulator, usb)")
	rootCmd.PersistentFlags().Uint16Var(&usbVID, "vid", 0, "USB vendor ID override (hex via 0x prefix)")
	rootCmd.PersistentFlags().Uint16Var(&usbPID, "pid", 0, "USB product ID override")
	rootCmd.PersistentFlags().BoolVar(&flipQuirk, "flip-quirk", false,
		"simulator: emulate an MSB-first shift engine (bit-order quirk)")
	rootCmd.PersistentFlags().DurationVar(&settleDelay, "settle", 0,
		"simulator: delay between line changes and the clock edge")
}
