package bridge

import (
	"golang.org/x/exp/constraints"
)

// Bits expands the low width bits of v, most significant bit first.
func Bits[T constraints.Unsigned](v T, width int) []bool {
	out := make([]bool, width)
	for i := 0; i < width; i++ {
		out[i] = (v>>uint(width-1-i))&1 != 0
	}
	return out
}

// Pack folds bits, most significant first, into an unsigned value. Bits past
// the width of T are shifted out.
func Pack[T constraints.Unsigned](bits []bool) T {
	var v T
	for _, b := range bits {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v
}

// Reverse returns bits in the opposite order.
func Reverse(bits []bool) []bool {
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[len(bits)-1-i] = b
	}
	return out
}

// BytesToBits expands data into bits, most significant bit of each byte
// first, which is the order SPI flashes expect.
func BytesToBits(data []byte) []bool {
	out := make([]bool, 0, len(data)*8)
	for _, b := range data {
		out = append(out, Bits(b, 8)...)
	}
	return out
}

// BitsToBytes packs bits into bytes, most significant bit first. A trailing
// partial byte is padded with zero bits.
func BitsToBytes(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return out
}
