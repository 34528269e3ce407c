package vendorlink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
	log "github.com/sirupsen/logrus"
)

const (
	// Default USB identifiers for the probe hardware.
	VendorID  = 0x1d50
	ProductID = 0x60e7

	DefaultTimeout = 5 * time.Second
)

// ProbeInfo describes a connected probe found during discovery.
type ProbeInfo struct {
	VendorID  uint16
	ProductID uint16
	Bus       int
	Address   int
}

func (p ProbeInfo) Label() string {
	return fmt.Sprintf("probe %04X:%04X (bus %d, addr %d)", p.VendorID, p.ProductID, p.Bus, p.Address)
}

// Discover enumerates connected probes matching the vendor identifiers.
func Discover(ctx context.Context, vid, pid uint16) ([]ProbeInfo, error) {
	var results []ProbeInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if uint16(desc.Vendor) == vid && uint16(desc.Product) == pid {
			results = append(results, ProbeInfo{
				VendorID:  uint16(desc.Vendor),
				ProductID: uint16(desc.Product),
				Bus:       desc.Bus,
				Address:   desc.Address,
			})
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}
	return results, nil
}

// USBDevice speaks the vendor protocol over USB control transfers to a
// connected probe.
type USBDevice struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	timeout time.Duration
}

// OpenUSB opens the first probe matching the given identifiers.
func OpenUSB(vid, pid uint16) (*USBDevice, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("vendorlink: opening probe: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("vendorlink: no probe found (VID:0x%04X PID:0x%04X)", vid, pid)
	}

	// Vendor requests go to the device's default control pipe; no interface
	// claim is needed, but detach any kernel driver that grabbed the device.
	if err := dev.SetAutoDetach(true); err != nil {
		log.WithError(err).Debug("auto-detach not supported; continuing")
	}

	dev.ControlTimeout = DefaultTimeout
	log.WithFields(log.Fields{
		"vid": fmt.Sprintf("%04X", vid),
		"pid": fmt.Sprintf("%04X", pid),
	}).Debug("probe opened")

	return &USBDevice{ctx: ctx, dev: dev, timeout: DefaultTimeout}, nil
}

func (u *USBDevice) Out(req uint8, value, index uint16, payload []byte) error {
	rType := uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
	if _, err := u.dev.Control(rType, req, value, index, payload); err != nil {
		return fmt.Errorf("vendorlink: OUT request 0x%02X: %w", req, err)
	}
	return nil
}

func (u *USBDevice) In(req uint8, value, index uint16, length int) ([]byte, error) {
	rType := uint8(gousb.ControlIn | gousb.ControlVendor | gousb.ControlDevice)
	buf := make([]byte, length)
	n, err := u.dev.Control(rType, req, value, index, buf)
	if err != nil {
		return nil, fmt.Errorf("vendorlink: IN request 0x%02X: %w", req, err)
	}
	return buf[:n], nil
}

func (u *USBDevice) Close() error {
	if err := u.dev.Close(); err != nil {
		u.ctx.Close()
		return fmt.Errorf("vendorlink: closing probe: %w", err)
	}
	return u.ctx.Close()
}
