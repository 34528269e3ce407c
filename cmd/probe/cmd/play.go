package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/svf"
)

var playCmd = &cobra.Command{
	Use:   "play <script.svf>",
	Short: "Play back an SVF script",
	Long: `Parse and execute an SVF script against the probe.

The supported subset covers STATE, RUNTEST, SIR and SDR statements, which
is sufficient for vendor-generated FPGA configuration flows. TDO
comparisons (with optional MASK) are verified and stop playback on
mismatch.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	parser, err := svf.NewParser()
	if err != nil {
		return err
	}
	script, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}
	log.WithField("statements", len(script.Commands)).Debug("script parsed")

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	return svf.NewPlayer(client).Run(script)
}
