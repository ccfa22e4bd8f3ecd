package bridge

import (
	"fmt"

	"github.com/boljen/go-bitmap"
)

// Readback buffers MISO samples taken on the rise phase and presents them on
// TDO from the fall phase.
type Readback interface {
	// Rise samples MISO. selected is the chip-select level seen by the SPI
	// sink on this edge.
	Rise(miso, selected bool)
	// Fall advances the TDO register.
	Fall()
	// Output returns the TDO level given the current MISO level.
	Output(miso bool) bool
	ResetRise()
	ResetFall()
}

// NewReadback builds the readback design selected by cfg.
func NewReadback(cfg *Config) (Readback, error) {
	switch cfg.Readback {
	case ReadbackShift:
		return NewShiftReadback(cfg.ReadbackParameter), nil
	case ReadbackMemory:
		return NewMemoryReadback(cfg.ReadbackParameter), nil
	}
	return nil, fmt.Errorf("%w: readback mode %s", ErrInvalidConfig, cfg.Readback)
}

// ShiftReadback delays MISO by a fixed number of whole bits. A width of zero
// forwards MISO to TDO combinationally.
type ShiftReadback struct {
	reg []bool // reg[0] is the newest sample
	tdo bool
}

// NewShiftReadback returns a shift register readback of width bits.
func NewShiftReadback(width int) *ShiftReadback {
	return &ShiftReadback{reg: make([]bool, width)}
}

// Width returns the register length in bits.
func (r *ShiftReadback) Width() int {
	return len(r.reg)
}

func (r *ShiftReadback) Rise(miso, _ bool) {
	if len(r.reg) == 0 {
		return
	}
	copy(r.reg[1:], r.reg[:len(r.reg)-1])
	r.reg[0] = miso
}

func (r *ShiftReadback) Fall() {
	if len(r.reg) == 0 {
		return
	}
	r.tdo = r.reg[len(r.reg)-1]
}

func (r *ShiftReadback) Output(miso bool) bool {
	if len(r.reg) == 0 {
		return miso
	}
	return r.tdo
}

func (r *ShiftReadback) ResetRise() {
	for i := range r.reg {
		r.reg[i] = false
	}
}

func (r *ShiftReadback) ResetFall() {
	r.tdo = false
}

// MemoryReadback records MISO into a circular bit memory while chip-select
// is asserted and replays it from a read pointer that starts one position
// ahead of the write pointer. The memory itself is not cleared by reset, so
// data written in one scan can be read back in the next.
type MemoryReadback struct {
	mem   bitmap.Bitmap
	depth int
	wr    int
	rd    int
	tdo   bool
}

// NewMemoryReadback returns a readback memory of depth bits.
func NewMemoryReadback(depth int) *MemoryReadback {
	return &MemoryReadback{
		mem:   bitmap.New(depth),
		depth: depth,
		rd:    1 % depth,
	}
}

// Depth returns the number of bits the memory holds.
func (r *MemoryReadback) Depth() int {
	return r.depth
}

// Pointers returns the current write and read positions.
func (r *MemoryReadback) Pointers() (wr, rd int) {
	return r.wr, r.rd
}

func (r *MemoryReadback) Rise(miso, selected bool) {
	if !selected {
		return
	}
	r.wr = (r.wr + 1) % r.depth
	r.mem.Set(r.wr, miso)
}

func (r *MemoryReadback) Fall() {
	r.tdo = r.mem.Get(r.rd)
	r.rd = (r.rd + 1) % r.depth
}

func (r *MemoryReadback) Output(bool) bool {
	return r.tdo
}

func (r *MemoryReadback) ResetRise() {
	r.wr = 0
}

func (r *MemoryReadback) ResetFall() {
	r.rd = 1 % r.depth
	r.tdo = false
}
