package bridge

import "fmt"

// MaxTransferBits is the largest window a single header can announce.
const MaxTransferBits = 1<<LengthWidth - 1

// HeaderWord returns magic<<16 | length, the value a frame header leaves in
// the top HeaderWidth bits of the accumulator.
func HeaderWord(cfg *Config, length uint16) uint64 {
	return cfg.Magic<<LengthWidth | uint64(length)
}

// EncodeHeader returns the TDI bits that announce a window of length bits.
// When the accumulator is wider than the header, zero padding is added on
// the side that keeps the header in the accumulator's top bits.
func EncodeHeader(cfg *Config, length uint16) []bool {
	hw := cfg.HeaderWidth()
	pad := make([]bool, cfg.AccumulatorWidth-hw)
	word := Bits(HeaderWord(cfg, length), hw)
	if cfg.Order == LSBFirst {
		return append(pad, Reverse(word)...)
	}
	return append(word, pad...)
}

// EncodeFrame prefixes payload with a header announcing exactly its length.
// Headerless configurations return the payload unchanged.
func EncodeFrame(cfg *Config, payload []bool) ([]bool, error) {
	if cfg.Framing == FramingShift {
		return append([]bool(nil), payload...), nil
	}
	if len(payload) > MaxTransferBits {
		return nil, fmt.Errorf("bridge: payload of %d bits exceeds %d", len(payload), MaxTransferBits)
	}
	frame := EncodeHeader(cfg, uint16(len(payload)))
	return append(frame, payload...), nil
}
