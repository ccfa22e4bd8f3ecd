package idcode

// Parse splits raw into its fields.
func Parse(raw uint32) IDCode {
	return IDCode{
		Raw:              raw,
		Version:          uint8(raw >> 28),
		PartNumber:       uint16(raw >> 12),
		ManufacturerCode: uint16(raw>>1) & 0x7ff,
		HasIDCode:        raw&1 == 1,
	}
}

// Valid reports whether raw looks like a real IDCODE rather than an open or
// shorted TDO line.
func Valid(raw uint32) bool {
	return raw&1 == 1 && raw != 0xffffffff
}
