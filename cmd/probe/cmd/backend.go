package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/vendorlink"
)

// openClient connects the selected backend and brings the TAP up. The
// returned cleanup stops the TAP and closes the transport.
func openClient() (*vendorlink.Client, func(), error) {
	var requester vendorlink.Requester

	switch backendName {
	case "simulator":
		var opts []probe.Option
		if flipQuirk {
			opts = append(opts, probe.WithQuirks(probe.QuirkFlipBytesInBlock))
		}
		if settleDelay > 0 {
			opts = append(opts, probe.WithSettleDelay(settleDelay))
		}
		ctl := probe.New(probe.NewLoopbackPins(), probe.NewSimEngine(), opts...)
		requester = vendorlink.NewLoopback(vendorlink.NewHandler(ctl))
		log.Debug("using loopback simulator backend")

	case "usb":
		vid, pid := uint16(vendorlink.VendorID), uint16(vendorlink.ProductID)
		if usbVID != 0 {
			vid = usbVID
		}
		if usbPID != 0 {
			pid = usbPID
		}
		dev, err := vendorlink.OpenUSB(vid, pid)
		if err != nil {
			return nil, nil, err
		}
		requester = dev

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want simulator or usb)", backendName)
	}

	client := vendorlink.NewClient(requester)
	if err := client.Start(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("starting TAP: %w", err)
	}

	cleanup := func() {
		if err := client.Stop(); err != nil {
			log.WithError(err).Warn("stopping TAP")
		}
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("closing probe")
		}
	}
	return client, cleanup, nil
}
