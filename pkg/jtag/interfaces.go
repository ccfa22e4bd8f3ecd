package jtag

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// InterfaceKind categorizes adapter families.
type InterfaceKind string

const (
	InterfaceKindFTDI     InterfaceKind = "ftdi"
	InterfaceKindXilinx   InterfaceKind = "xilinx-cable"
	InterfaceKindCMSISDAP InterfaceKind = "cmsis-dap"
	InterfaceKindSim      InterfaceKind = "simulator"
)

// InterfaceInfo describes a detected adapter.
type InterfaceInfo struct {
	Kind        InterfaceKind
	Description string
	VendorID    uint16
	ProductID   uint16
	Bus         int
	Address     int
}

// Label returns a user-facing description.
func (i InterfaceInfo) Label() string {
	if i.Description != "" {
		return i.Description
	}
	if i.Kind != "" {
		return fmt.Sprintf("%s (%04X:%04X)", string(i.Kind), i.VendorID, i.ProductID)
	}
	return fmt.Sprintf("Interface %04X:%04X", i.VendorID, i.ProductID)
}

// DiscoverInterfaces lists USB devices matching cables commonly used with
// boundary-scan SPI loaders. The bridge simulator is always appended last.
func DiscoverInterfaces(ctx context.Context) ([]InterfaceInfo, error) {
	var results []InterfaceInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if info, ok := ClassifyUSB(uint16(desc.Vendor), uint16(desc.Product)); ok {
			info.Bus, info.Address = desc.Bus, desc.Address
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}

	results = append(results, SimInterface())
	return results, nil
}

// SimInterface is the entry for the built-in bridge simulator.
func SimInterface() InterfaceInfo {
	return InterfaceInfo{
		Kind:        InterfaceKindSim,
		Description: "Bridge simulator (no hardware)",
	}
}

// ClassifyUSB matches a VID/PID pair against the known cable table.
func ClassifyUSB(vid, pid uint16) (InterfaceInfo, bool) {
	for _, known := range knownCables {
		if vid == known.VendorID && pid == known.ProductID {
			return InterfaceInfo{
				Kind:        known.Kind,
				Description: known.Description,
				VendorID:    vid,
				ProductID:   pid,
			}, true
		}
	}
	return InterfaceInfo{}, false
}

type knownUSBDevice struct {
	Kind        InterfaceKind
	VendorID    uint16
	ProductID   uint16
	Description string
}

var knownCables = []knownUSBDevice{
	{InterfaceKindFTDI, 0x0403, 0x6010, "FTDI FT2232 (Papilio, generic MPSSE)"},
	{InterfaceKindFTDI, 0x0403, 0x6014, "FTDI FT232H (Digilent JTAG-HS2)"},
	{InterfaceKindXilinx, 0x03fd, 0x0008, "Xilinx Platform Cable USB"},
	{InterfaceKindXilinx, 0x03fd, 0x0013, "Xilinx Platform Cable USB II"},
	{InterfaceKindCMSISDAP, 0x2e8a, 0x000c, "Raspberry Pi CMSIS-DAP"},
	{InterfaceKindCMSISDAP, 0x0d28, 0x0204, "DAPLink CMSIS-DAP"},
}
