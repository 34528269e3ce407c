package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/vendorlink"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show probe capabilities",
	RunE:  runInfo,
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List connected probes",
	RunE:  runDiscover,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(discoverCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := client.Info()
	if err != nil {
		return err
	}
	fmt.Printf("scan buffer: %d bytes\n", info.BufferBytes)
	fmt.Printf("quirks: %#08x\n", uint32(info.Quirks))
	if info.Quirks.Has(probe.QuirkFlipBytesInBlock) {
		fmt.Println("  - block path flips bit order within whole bytes")
	}
	return nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	vid, pid := uint16(vendorlink.VendorID), uint16(vendorlink.ProductID)
	if usbVID != 0 {
		vid = usbVID
	}
	if usbPID != 0 {
		pid = usbPID
	}

	probes, err := vendorlink.Discover(context.Background(), vid, pid)
	if err != nil {
		return err
	}
	if len(probes) == 0 {
		fmt.Println("no probes found")
		return nil
	}
	for _, p := range probes {
		fmt.Println(p.Label())
	}
	return nil
}
