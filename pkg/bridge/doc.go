// Package bridge models a JTAG boundary-scan to SPI master bridge at the
// level of individual clock edges.
//
// The host shifts a frame into a boundary-scan user data register. The
// bridge accumulates those bits, and once the high-order bits of the
// accumulator equal the configured magic pattern it loads a 16-bit transfer
// length and opens an SPI chip-select window for exactly that many clock
// cycles. DRCK is forwarded as SCLK and TDI as MOSI without gating; framing is
// carried entirely by chip-select.
//
// # Clocking
//
// All registers belong to one of two phases derived from DRCK:
//
//   - rise: shift accumulator, stop flag, readback write side
//   - fall: magic detection, length counter, readback read side
//
// Reset is recomputed from every sample as capture|reset|update|!select and
// applied to a phase's registers on that phase's next edge.
//
// # Readback
//
// MISO is sampled on the rise phase and replayed on TDO from the fall phase
// through either a shift register (ReadbackShift) or a circular bit memory
// (ReadbackMemory). Which one, and its width or depth, is fixed by Config.
//
// # Usage
//
//	cfg := bridge.Fpgaprog()
//	b, err := bridge.New(cfg, sink)
//	if err != nil {
//		return err
//	}
//	for _, s := range samples {
//		sig := b.Step(s)
//		_ = sig.CSn
//	}
//
// The bridge never reports protocol errors. Traffic that does not match the
// magic pattern is shifted through silently and a zero length opens no window.
// Recovery from a malformed frame is a host-driven reset.
package bridge
