package bridge

// State holds every register of the frame synchronizer. The zero value is the
// power-up state.
type State struct {
	Accumulator uint64 // last AccumulatorWidth TDI bits
	Length      uint16 // remaining transfer length, modulo 2^16
	Active      bool   // magic seen since the last reset
	Start       bool   // length was nonzero when loaded
	Stop        bool   // length ran out after a nonzero load
}

// Reset returns every register to its power-up value at once.
func (s *State) Reset() {
	*s = State{}
}

// Selected reports whether a window is open, before qualifying with the
// tap's select line.
func (s State) Selected() bool {
	return s.Start && !s.Stop
}
