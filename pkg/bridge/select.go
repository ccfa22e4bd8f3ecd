package bridge

// ChipSelect is the combinational select equation of the magic framing:
// the window is open while the tap selects the user register, a nonzero
// transfer was loaded and the length has not yet run out.
func ChipSelect(sel, start, stop bool) bool {
	return sel && start && !stop
}

// shiftSelect is the headerless equation: select follows Shift-DR.
func shiftSelect(s TapSample) bool {
	return s.Select && s.Shift && !s.Reset
}

// pins derives the SPI outputs. SCLK and MOSI are forwarded ungated.
func (b *Bridge) pins(s TapSample) SPIPins {
	return SPIPins{
		CSn:  !b.selected(s),
		Clk:  s.DRCK,
		MOSI: s.TDI,
	}
}

func (b *Bridge) selected(s TapSample) bool {
	if b.cfg.Framing == FramingShift {
		return shiftSelect(s)
	}
	st := b.sync.State()
	return ChipSelect(s.Select, st.Start, st.Stop)
}
