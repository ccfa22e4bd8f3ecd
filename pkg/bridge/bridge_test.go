package bridge

import (
	"math/rand"
	"testing"
)

// selectedRises returns the bit indices whose rising edge saw chip-select
// asserted. Samples come from ClockSamples, so bit i rises at sample 2i+1.
func selectedRises(sigs []Signals) []int {
	var out []int
	for i, sig := range sigs {
		if sig.Ticked && sig.Edge == PhaseRise && sig.Selected() {
			out = append(out, i/2)
		}
	}
	return out
}

func mustBridge(t *testing.T, cfg *Config, sink SPISink) *Bridge {
	t.Helper()
	b, err := New(cfg, sink)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return b
}

func runBits(b *Bridge, bits []bool) []Signals {
	return b.Run(&SliceSource{Samples: ClockSamples(bits)})
}

func zeros(n int) []bool {
	return make([]bool, n)
}

func wantConsecutive(t *testing.T, got []int, first, count int) {
	t.Helper()
	if len(got) != count {
		t.Fatalf("selected rises = %v, want %d starting at bit %d", got, count, first)
	}
	for i, idx := range got {
		if idx != first+i {
			t.Fatalf("selected rises = %v, want %d consecutive from bit %d", got, count, first)
		}
	}
}

func TestScenarioMagic59A6Length5(t *testing.T) {
	cfg := Fpgaprog()
	header := EncodeHeader(cfg, 5)
	if got := Pack[uint32](header); got != 0x59a60005 {
		t.Fatalf("header word = %#x, want 0x59a60005", got)
	}

	b := mustBridge(t, cfg, nil)
	sigs := runBits(b, append(header, zeros(40)...))

	last := len(header) - 1
	wantConsecutive(t, selectedRises(sigs), last+1, 5)

	// chip-select drops on the fall tick right after the last header bit is
	// accumulated
	first := -1
	for i, sig := range sigs {
		if sig.Selected() {
			first = i
			break
		}
	}
	if want := 2*last + 2; first != want {
		t.Fatalf("first selected sample = %d, want %d", first, want)
	}

	st := b.State()
	if !st.Active || !st.Start || !st.Stop || st.Length != 0 {
		t.Fatalf("final state = %+v, want active, started, stopped, length 0", st)
	}
	if b.Phase() != SyncActive {
		t.Fatalf("Phase() = %s, want ACTIVE", b.Phase())
	}
}

func TestWindowLengths(t *testing.T) {
	lengths := []uint16{1, 2, 7, 64, 300}
	configs := []*Config{Fpgaprog(), Xc3sprog()}

	lsb := Fpgaprog()
	lsb.Order = LSBFirst
	configs = append(configs, lsb)

	padded := Fpgaprog()
	padded.AccumulatorWidth = 40
	configs = append(configs, padded)

	padLSB := Xc3sprog()
	padLSB.AccumulatorWidth = 56
	padLSB.Order = LSBFirst
	configs = append(configs, padLSB)

	selected := Fpgaprog()
	selected.Decrement = DecrementWhileSelected
	configs = append(configs, selected)

	for _, cfg := range configs {
		for _, l := range lengths {
			b := mustBridge(t, cfg, nil)
			header := EncodeHeader(cfg, l)
			sigs := runBits(b, append(header, zeros(int(l)+16)...))
			got := selectedRises(sigs)
			if len(got) != int(l) || got[0] != len(header) {
				t.Fatalf("%s length %d: selected rises %d from %v, want %d from bit %d",
					cfg, l, len(got), got[:min(len(got), 3)], l, len(header))
			}
		}
	}
}

func TestZeroLengthNeverSelects(t *testing.T) {
	for _, cfg := range []*Config{Fpgaprog(), Xc3sprog()} {
		b := mustBridge(t, cfg, nil)
		sigs := runBits(b, append(EncodeHeader(cfg, 0), zeros(64)...))
		for i, sig := range sigs {
			if sig.Selected() {
				t.Fatalf("%s: selected at sample %d for zero-length frame", cfg.Name, i)
			}
		}
		st := b.State()
		if !st.Active || st.Start || st.Stop {
			t.Fatalf("%s: state = %+v, want active without start", cfg.Name, st)
		}
	}
}

// noMagic returns n random bits in which no window of magicWidth bits,
// including windows that start in the zeroed accumulator, equals magic.
func noMagic(rng *rand.Rand, n, magicWidth int, magic uint64) []bool {
	mask := ^uint64(0) >> uint(64-magicWidth)
	var win uint64
	out := make([]bool, n)
	for i := range out {
		bit := rng.Intn(2) == 1
		win = (win<<1 | boolBit(bit)) & mask
		if win == magic {
			win ^= 1
			bit = !bit
		}
		out[i] = bit
	}
	return out
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func TestRandomTrafficNeverSelects(t *testing.T) {
	rng := rand.New(rand.NewSource(1149))
	for _, cfg := range []*Config{Fpgaprog(), Xc3sprog()} {
		bits := noMagic(rng, 1000, cfg.MagicWidth, cfg.Magic)
		b := mustBridge(t, cfg, nil)
		sigs := runBits(b, bits)
		if len(sigs) != 2000 {
			t.Fatalf("signals = %d, want 2000", len(sigs))
		}
		for i, sig := range sigs {
			if !sig.CSn {
				t.Fatalf("%s: cs_n low at sample %d", cfg.Name, i)
			}
		}
		if b.Phase() != SyncIdle {
			t.Fatalf("%s: Phase() = %s, want IDLE", cfg.Name, b.Phase())
		}
	}
}

func TestResetAbandonsTransfer(t *testing.T) {
	triggers := map[string]func(*TapSample){
		"capture":  func(s *TapSample) { s.Capture = true },
		"reset":    func(s *TapSample) { s.Reset = true },
		"update":   func(s *TapSample) { s.Update = true },
		"deselect": func(s *TapSample) { s.Select = false },
	}

	for name, apply := range triggers {
		t.Run(name, func(t *testing.T) {
			cfg := Fpgaprog()
			header := EncodeHeader(cfg, 100)
			samples := ClockSamples(append(header, zeros(40)...))

			// assert the trigger for one full clock, three bits into the window
			at := 2 * (len(header) + 3)
			apply(&samples[at])
			apply(&samples[at+1])

			b := mustBridge(t, cfg, nil)
			for i := 0; i < at; i++ {
				b.Step(samples[i])
			}
			if st := b.State(); !st.Active || !st.Start || st.Length == 0 {
				t.Fatalf("state before reset = %+v, want a running transfer", st)
			}

			sig := b.Step(samples[at]) // fall tick
			if sig.Selected() {
				t.Fatalf("still selected after fall-phase reset")
			}
			if st := b.State(); st.Active || st.Start || st.Length != 0 {
				t.Fatalf("fall registers after reset = %+v, want cleared", st)
			}

			b.Step(samples[at+1]) // rise tick
			if st := b.State(); st != (State{}) {
				t.Fatalf("state after both phases reset = %+v, want zero", st)
			}

			for _, s := range samples[at+2:] {
				if sig := b.Step(s); sig.Selected() {
					t.Fatalf("window reopened after reset")
				}
			}
		})
	}
}

func TestDecrementModesDifferInLeadOut(t *testing.T) {
	onLoad := Fpgaprog()
	whileSel := Fpgaprog()
	whileSel.Decrement = DecrementWhileSelected

	const l = 4
	header := EncodeHeader(onLoad, l)
	bits := append(header, zeros(8)...)

	a := runBits(mustBridge(t, onLoad, nil), bits)
	b := runBits(mustBridge(t, whileSel, nil), bits)

	// fall tick that follows the last selected rise
	fall := 2 * (len(header) + l)
	if !a[fall].Selected() {
		t.Fatalf("load mode: not selected at sample %d, want window held until next rise", fall)
	}
	if b[fall].Selected() {
		t.Fatalf("selected mode: selected at sample %d, want window closed on fall tick", fall)
	}
	if a[fall+1].Selected() || b[fall+1].Selected() {
		t.Fatalf("window still open after the lead-out rise")
	}
}

func TestDirectFramingFollowsShift(t *testing.T) {
	cfg := Direct()
	b := mustBridge(t, cfg, nil)
	samples := ClockSamples(zeros(10))
	for i := 10; i < 14; i++ {
		samples[i].Shift = false
	}
	sigs := b.Run(&SliceSource{Samples: samples})
	got := selectedRises(sigs)
	want := []int{0, 1, 2, 3, 4, 7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("selected rises = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("selected rises = %v, want %v", got, want)
		}
	}
}

func TestPinsForwardClockAndData(t *testing.T) {
	b := mustBridge(t, Fpgaprog(), nil)
	for _, s := range []TapSample{
		{TDI: true, DRCK: true, Select: true},
		{TDI: false, DRCK: false, Select: true},
		{TDI: true, DRCK: false, Select: false},
	} {
		sig := b.Step(s)
		if sig.Clk != s.DRCK || sig.MOSI != s.TDI {
			t.Fatalf("pins = %+v for sample %+v, want clk/mosi forwarded", sig.SPIPins, s)
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := Fpgaprog()
	cfg.AccumulatorWidth = 24
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error for accumulator narrower than header")
	}
	b, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New(nil) returned error: %v", err)
	}
	if got := b.Config().Name; got != "xc3sprog" {
		t.Fatalf("default config = %s, want xc3sprog", got)
	}
}
