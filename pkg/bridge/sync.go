package bridge

import "fmt"

// SyncPhase is the frame synchronizer's protocol state.
type SyncPhase uint8

const (
	SyncIdle SyncPhase = iota
	SyncActive
)

func (p SyncPhase) String() string {
	switch p {
	case SyncIdle:
		return "IDLE"
	case SyncActive:
		return "ACTIVE"
	}
	return fmt.Sprintf("SyncPhase(%d)", p)
}

// FrameSync detects the magic/length header in the TDI stream and tracks the
// length of the chip-select window it announces.
type FrameSync struct {
	order     BitOrder
	decrement DecrementMode

	width       uint
	mask        uint64
	magic       uint64
	magicMask   uint64
	magicShift  uint
	lengthShift uint

	state State
}

// NewFrameSync builds a synchronizer for a validated configuration.
func NewFrameSync(cfg *Config) *FrameSync {
	w := uint(cfg.AccumulatorWidth)
	return &FrameSync{
		order:       cfg.Order,
		decrement:   cfg.Decrement,
		width:       w,
		mask:        ^uint64(0) >> (MaxAccumulatorWidth - w),
		magic:       cfg.Magic,
		magicMask:   ^uint64(0) >> (MaxAccumulatorWidth - uint(cfg.MagicWidth)),
		magicShift:  w - uint(cfg.MagicWidth),
		lengthShift: w - uint(cfg.HeaderWidth()),
	}
}

// State returns a copy of the synchronizer registers.
func (f *FrameSync) State() State {
	return f.state
}

// Phase reports IDLE until a magic pattern has been detected.
func (f *FrameSync) Phase() SyncPhase {
	if f.state.Active {
		return SyncActive
	}
	return SyncIdle
}

// Reset clears every register.
func (f *FrameSync) Reset() {
	f.state.Reset()
}

// Rise runs one rise-phase tick. selected is the chip-select level before
// the edge.
func (f *FrameSync) Rise(tdi, selected bool) {
	prev := f.state
	f.state.Accumulator = f.shift(prev.Accumulator, tdi)

	switch f.decrement {
	case DecrementOnLoad:
		if prev.Start {
			f.state.Stop = prev.Length == 0
			if f.state.Stop && !prev.Stop {
				logger.Debug("bridge: transfer complete, closing window")
			}
		}
	case DecrementWhileSelected:
		if selected && prev.Length > 0 {
			f.state.Length = prev.Length - 1
		}
	}
}

// Fall runs one fall-phase tick.
func (f *FrameSync) Fall() {
	prev := f.state

	if !prev.Active && f.matches(prev.Accumulator) {
		length := uint16(prev.Accumulator >> f.lengthShift)
		f.state.Active = true
		f.state.Length = length
		f.state.Start = length > 0
		logger.Debugf("bridge: magic detected, transfer length %d", length)
	}

	switch f.decrement {
	case DecrementOnLoad:
		if prev.Length > 0 {
			f.state.Length = prev.Length - 1
		}
	case DecrementWhileSelected:
		if prev.Start {
			f.state.Stop = prev.Length == 0
			if f.state.Stop && !prev.Stop {
				logger.Debug("bridge: transfer complete, closing window")
			}
		}
	}
}

// ResetRise clears the registers written on the rise phase.
func (f *FrameSync) ResetRise() {
	f.state.Accumulator = 0
	switch f.decrement {
	case DecrementOnLoad:
		f.state.Stop = false
	case DecrementWhileSelected:
		f.state.Length = 0
	}
}

// ResetFall clears the registers written on the fall phase.
func (f *FrameSync) ResetFall() {
	f.state.Active = false
	f.state.Start = false
	f.state.Length = 0
	if f.decrement == DecrementWhileSelected {
		f.state.Stop = false
	}
}

func (f *FrameSync) shift(acc uint64, tdi bool) uint64 {
	var bit uint64
	if tdi {
		bit = 1
	}
	if f.order == LSBFirst {
		return acc>>1 | bit<<(f.width-1)
	}
	return (acc<<1 | bit) & f.mask
}

func (f *FrameSync) matches(acc uint64) bool {
	return (acc>>f.magicShift)&f.magicMask == f.magic
}
