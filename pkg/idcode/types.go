// Package idcode decodes IEEE 1149.1 IDCODE values read from a device.
package idcode

import "fmt"

// IDCode is a decoded 32-bit IDCODE register.
type IDCode struct {
	Raw              uint32
	Version          uint8  // [31:28]
	PartNumber       uint16 // [27:12]
	ManufacturerCode uint16 // [11:1], JEP106 bank<<7 | id
	HasIDCode        bool   // bit 0; a zero here means the device is in BYPASS
}

// Manufacturer is one JEP106 entry.
type Manufacturer struct {
	Code uint16
	Name string
}

func (id IDCode) String() string {
	m, _ := LookupManufacturer(id.ManufacturerCode)
	return fmt.Sprintf("0x%08X (%s, part 0x%04X, rev %d)", id.Raw, m.Name, id.PartNumber, id.Version)
}
