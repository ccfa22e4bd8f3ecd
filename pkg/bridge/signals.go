package bridge

// TapSample is one observation of the boundary-scan user register outputs.
// Capture, Reset and Update are only ever used as reset triggers.
type TapSample struct {
	TDI     bool
	Capture bool
	Reset   bool
	Update  bool
	Select  bool
	Shift   bool
	DRCK    bool
}

// ResetCondition reports whether the shared reset of both clock phases is
// asserted for this sample.
func (s TapSample) ResetCondition() bool {
	return s.Capture || s.Reset || s.Update || !s.Select
}

// TapSource produces tap samples, one per call, until it is exhausted.
type TapSource interface {
	Next() (TapSample, bool)
}

// SliceSource replays a fixed sequence of samples.
type SliceSource struct {
	Samples []TapSample
	pos     int
}

// Next implements TapSource.
func (s *SliceSource) Next() (TapSample, bool) {
	if s.pos >= len(s.Samples) {
		return TapSample{}, false
	}
	out := s.Samples[s.pos]
	s.pos++
	return out, true
}

// SPIPins carries the bridge outputs presented to the SPI side.
type SPIPins struct {
	CSn  bool // active low
	Clk  bool
	MOSI bool
}

// SPISink consumes the SPI output pins after every sample and returns the
// MISO level it drives until the next call.
type SPISink interface {
	Exchange(pins SPIPins) (miso bool)
}

// IdleSink is an SPI sink with nothing attached: MISO floats high.
type IdleSink struct{}

// Exchange implements SPISink.
func (IdleSink) Exchange(SPIPins) bool { return true }

// Signals is the bridge's externally visible state after one sample.
type Signals struct {
	SPIPins
	MISO bool
	// TDO is the level on the tap's serial output at the instant of this
	// sample's rising edge, or before any edge if none occurred.
	TDO bool
	// Edge reports which phase ran for this sample, if any.
	Edge   Phase
	Ticked bool
}

// Selected reports whether chip-select is asserted.
func (s Signals) Selected() bool {
	return !s.CSn
}

// ClockSamples expands a TDI bit stream into DRCK low/high sample pairs with
// Select held, suitable for driving a bridge directly without a TAP model.
func ClockSamples(tdi []bool) []TapSample {
	out := make([]TapSample, 0, 2*len(tdi))
	for _, bit := range tdi {
		out = append(out,
			TapSample{TDI: bit, Select: true, Shift: true, DRCK: false},
			TapSample{TDI: bit, Select: true, Shift: true, DRCK: true},
		)
	}
	return out
}
