// Package jtag defines the adapter boundary between host-side scan logic and
// whatever clocks TCK, plus a simulated adapter backed by a bridge target.
package jtag

import (
	"errors"
	"fmt"
)

// AdapterInfo describes a JTAG adapter.
type AdapterInfo struct {
	Name         string
	Vendor       string
	Model        string
	SerialNumber string
	MaxFrequency int // Hertz
	SupportsTRST bool
	Notes        string
}

// Adapter clocks raw TMS/TDI bit streams. Buffers are packed LSB first: bit i
// of a stream is buf[i/8] bit i%8. ShiftIR and ShiftDR only differ in the
// register the caller expects to be shifting; the bits are clocked as given.
type Adapter interface {
	Info() (AdapterInfo, error)
	ShiftIR(tms, tdi []byte, bits int) (tdo []byte, err error)
	ShiftDR(tms, tdi []byte, bits int) (tdo []byte, err error)
	ResetTAP(hard bool) error
	SetSpeed(hz int) error
}

// ErrNotImplemented is returned by adapters lacking an optional capability.
var ErrNotImplemented = errors.New("jtag: not implemented")

// ValidateShiftBuffers checks that non-empty buffers hold at least bits bits
// and returns the byte length a stream of that many bits needs.
func ValidateShiftBuffers(tms, tdi []byte, bits int) (int, error) {
	if bits <= 0 {
		return 0, fmt.Errorf("jtag: bits must be positive, got %d", bits)
	}
	required := (bits + 7) / 8
	if len(tms) > 0 && len(tms) < required {
		return 0, fmt.Errorf("jtag: tms buffer too short, need %d bytes", required)
	}
	if len(tdi) > 0 && len(tdi) < required {
		return 0, fmt.Errorf("jtag: tdi buffer too short, need %d bytes", required)
	}
	return required, nil
}

// PackBits packs bits LSB first, the order adapters expect.
func PackBits(bits []bool) []byte {
	buf := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			buf[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return buf
}

// UnpackBits expands the first n bits of buf, LSB first. Missing bytes read
// as zero.
func UnpackBits(buf []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		if i/8 < len(buf) {
			out[i] = buf[i/8]&(1<<(uint(i)%8)) != 0
		}
	}
	return out
}
