package idcode

import "fmt"

// Vendors that ship parts with boundary-scan user registers, plus ARM for
// mixed chains.
var manufacturers = map[uint16]Manufacturer{
	0x049: {Code: 0x049, Name: "Xilinx"},
	0x06e: {Code: 0x06e, Name: "Altera"},
	0x021: {Code: 0x021, Name: "Lattice"},
	0x0e7: {Code: 0x0e7, Name: "Microsemi"},
	0x40d: {Code: 0x40d, Name: "Gowin"},
	0x23b: {Code: 0x23b, Name: "ARM"},
}

// LookupManufacturer returns the entry for code. Unknown codes get a
// placeholder name and false.
func LookupManufacturer(code uint16) (Manufacturer, bool) {
	if m, ok := manufacturers[code]; ok {
		return m, true
	}
	return Manufacturer{Code: code, Name: fmt.Sprintf("Unknown (0x%03X)", code)}, false
}
