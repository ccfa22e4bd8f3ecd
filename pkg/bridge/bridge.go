package bridge

// Bridge is the JTAG-to-SPI protocol core. It is driven one tap sample at a
// time and is not safe for concurrent use.
type Bridge struct {
	cfg      Config
	clock    ClockDomains
	sync     *FrameSync
	readback Readback
	sink     SPISink

	miso bool
}

// New validates cfg and builds a bridge driving sink. A nil cfg selects
// DefaultConfig and a nil sink leaves the SPI side unconnected.
func New(cfg *Config, sink SPISink) (*Bridge, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rb, err := NewReadback(cfg)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = IdleSink{}
	}
	b := &Bridge{
		cfg:      *cfg,
		sync:     NewFrameSync(cfg),
		readback: rb,
		sink:     sink,
	}
	b.miso = sink.Exchange(SPIPins{CSn: true})
	logger.Debugf("bridge: configured %s", cfg)
	return b, nil
}

// Config returns a copy of the configuration the bridge was built with.
func (b *Bridge) Config() Config {
	return b.cfg
}

// State returns a copy of the frame synchronizer registers.
func (b *Bridge) State() State {
	return b.sync.State()
}

// Phase reports the frame synchronizer's protocol state.
func (b *Bridge) Phase() SyncPhase {
	return b.sync.Phase()
}

// Readback exposes the readback buffer for inspection.
func (b *Bridge) Readback() Readback {
	return b.readback
}

// TDO returns the current level of the tap serial output.
func (b *Bridge) TDO() bool {
	return b.readback.Output(b.miso)
}

// Reset forces both phases to their reset values immediately. The readback
// memory contents, if any, are kept.
func (b *Bridge) Reset() {
	b.sync.Reset()
	b.readback.ResetRise()
	b.readback.ResetFall()
}

// Step processes one tap sample: it runs the phase whose edge the sample
// carries, then presents the settled outputs to the SPI sink.
func (b *Bridge) Step(s TapSample) Signals {
	sig := Signals{TDO: b.readback.Output(b.miso)}
	rst := s.ResetCondition()

	if phase, ok := b.clock.Edge(s.DRCK); ok {
		sig.Edge, sig.Ticked = phase, true
		switch phase {
		case PhaseRise:
			b.rise(s, rst)
		case PhaseFall:
			b.fall(rst)
		}
	}

	sig.SPIPins = b.pins(s)
	b.miso = b.sink.Exchange(sig.SPIPins)
	sig.MISO = b.miso
	return sig
}

// Run drains src through Step and returns the signals produced by each
// sample.
func (b *Bridge) Run(src TapSource) []Signals {
	var out []Signals
	for {
		s, ok := src.Next()
		if !ok {
			return out
		}
		out = append(out, b.Step(s))
	}
}

func (b *Bridge) rise(s TapSample, rst bool) {
	if rst {
		if b.sync.State().Stop || b.sync.State().Accumulator != 0 {
			logger.Debug("bridge: rise phase reset")
		}
		b.sync.ResetRise()
		b.readback.ResetRise()
		return
	}
	if b.cfg.Framing == FramingMagic {
		b.sync.Rise(s.TDI, b.selected(s))
	}
	// the sink samples against the select level that settles after the edge
	b.readback.Rise(b.miso, b.selected(s))
}

func (b *Bridge) fall(rst bool) {
	if rst {
		if b.sync.State().Active {
			logger.Debug("bridge: fall phase reset, abandoning transfer")
		}
		b.sync.ResetFall()
		b.readback.ResetFall()
		return
	}
	if b.cfg.Framing == FramingMagic {
		b.sync.Fall()
	}
	b.readback.Fall()
}
