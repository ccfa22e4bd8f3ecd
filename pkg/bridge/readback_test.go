package bridge

import (
	"math/rand"
	"testing"
)

func randomBits(rng *rand.Rand, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = rng.Intn(2) == 1
	}
	return out
}

func TestShiftReadbackDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, width := range []int{0, 1, 3, 8, 32} {
		rb := NewShiftReadback(width)
		in := randomBits(rng, 200)
		for i, bit := range in {
			out := rb.Output(bit)
			if width == 0 && out != bit {
				t.Fatalf("width 0: output %v at %d, want passthrough %v", out, i, bit)
			}
			if width > 0 && i >= width && out != in[i-width] {
				t.Fatalf("width %d: output %v at %d, want sample from %d (%v)",
					width, out, i, i-width, in[i-width])
			}
			rb.Rise(bit, true)
			rb.Fall()
		}
	}
}

func TestShiftReadbackReset(t *testing.T) {
	rb := NewShiftReadback(4)
	for i := 0; i < 4; i++ {
		rb.Rise(true, true)
		rb.Fall()
	}
	if !rb.Output(false) {
		t.Fatalf("expected tdo high after four high samples")
	}
	rb.ResetFall()
	if rb.Output(true) {
		t.Fatalf("tdo not cleared by fall reset")
	}
	rb.ResetRise()
	rb.Fall()
	if rb.Output(true) {
		t.Fatalf("register not cleared by rise reset")
	}
}

func TestMemoryReadbackReplaysPreviousWrite(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, depth := range []int{16, 1 << 14} {
		n := min(depth-1, 500)
		rb := NewMemoryReadback(depth)
		written := randomBits(rng, n)
		for _, bit := range written {
			rb.Rise(bit, true)
		}
		if wr, _ := rb.Pointers(); wr != n {
			t.Fatalf("depth %d: write pointer = %d, want %d", depth, wr, n)
		}

		read := make([]bool, n)
		for i := range read {
			read[i] = rb.Output(false)
			rb.Fall()
		}
		for i := 1; i < n; i++ {
			if read[i] != written[i-1] {
				t.Fatalf("depth %d: read[%d] = %v, want write[%d] = %v",
					depth, i, read[i], i-1, written[i-1])
			}
		}
	}
}

func TestMemoryReadbackSurvivesReset(t *testing.T) {
	rb := NewMemoryReadback(16)
	pattern := []bool{true, false, true, true, false, false, true}
	for _, bit := range pattern {
		rb.Rise(bit, true)
	}
	rb.Rise(true, false) // deselected writes are dropped

	rb.ResetRise()
	rb.ResetFall()
	if wr, rd := rb.Pointers(); wr != 0 || rd != 1 {
		t.Fatalf("pointers after reset = (%d, %d), want (0, 1)", wr, rd)
	}
	for i, want := range pattern {
		rb.Fall()
		if got := rb.Output(false); got != want {
			t.Fatalf("bit %d after reset = %v, want %v", i, got, want)
		}
	}
}

func TestMemoryReadbackWraps(t *testing.T) {
	rb := NewMemoryReadback(4)
	for i := 0; i < 5; i++ {
		rb.Rise(i%2 == 0, true)
	}
	if wr, _ := rb.Pointers(); wr != 1 {
		t.Fatalf("write pointer after wrap = %d, want 1", wr)
	}
}

func TestNewReadbackByMode(t *testing.T) {
	rb, err := NewReadback(Fpgaprog())
	if err != nil {
		t.Fatalf("NewReadback: %v", err)
	}
	if sr, ok := rb.(*ShiftReadback); !ok || sr.Width() != 8 {
		t.Fatalf("fpgaprog readback = %T, want 8-bit shift register", rb)
	}
	rb, err = NewReadback(Xc3sprog())
	if err != nil {
		t.Fatalf("NewReadback: %v", err)
	}
	if mr, ok := rb.(*MemoryReadback); !ok || mr.Depth() != 1<<14 {
		t.Fatalf("xc3sprog readback = %T, want 16384-bit memory", rb)
	}
}

// The tests below drive readback through a bridge with a slave attached.

type replySink struct {
	reply []bool
	sel   bool
	clk   bool
	n     int
	miso  bool
}

// Exchange mimics a mode 0 slave: bit 0 is valid at select, the next bit
// is presented on every falling edge inside the window.
func (r *replySink) Exchange(p SPIPins) bool {
	sel := !p.CSn
	switch {
	case sel && !r.sel:
		r.n = 0
		r.miso = r.bit(0)
	case sel && r.clk && !p.Clk:
		r.n++
		r.miso = r.bit(r.n)
	case !sel:
		r.miso = true
	}
	r.sel, r.clk = sel, p.Clk
	return r.miso
}

func (r *replySink) bit(i int) bool {
	if i < len(r.reply) {
		return r.reply[i]
	}
	return true
}

func tdoAtRises(sigs []Signals) []bool {
	var out []bool
	for _, sig := range sigs {
		if sig.Ticked && sig.Edge == PhaseRise {
			out = append(out, sig.TDO)
		}
	}
	return out
}

func TestShiftReadbackThroughBridge(t *testing.T) {
	cfg := Fpgaprog()
	reply := BytesToBits([]byte{0xa5})
	sink := &replySink{reply: reply}
	b := mustBridge(t, cfg, sink)

	frame, err := EncodeFrame(cfg, BytesToBits([]byte{0x3c}))
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	w := cfg.ReadbackParameter
	tdo := tdoAtRises(runBits(b, append(frame, zeros(w)...)))

	first := len(frame) - len(reply) + w
	got := BitsToBytes(tdo[first : first+len(reply)])
	if got[0] != 0xa5 {
		t.Fatalf("readback = %#x, want 0xa5", got[0])
	}
}

func TestMemoryReadbackThroughBridge(t *testing.T) {
	cfg := Xc3sprog()
	reply := BytesToBits([]byte{0x9f, 0x01})
	sink := &replySink{reply: reply}
	b := mustBridge(t, cfg, sink)

	frame, err := EncodeFrame(cfg, zeros(len(reply)))
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	samples := ClockSamples(frame)
	samples = append(samples,
		TapSample{Select: true, Capture: true},
		TapSample{Select: true, Capture: true, DRCK: true},
	)
	samples = append(samples, ClockSamples(zeros(len(reply)))...)

	sigs := b.Run(&SliceSource{Samples: samples})
	tdo := tdoAtRises(sigs)
	second := tdo[len(tdo)-len(reply):]
	for i := range reply {
		if second[i] != reply[i] {
			t.Fatalf("second scan bit %d = %v, want %v", i, second[i], reply[i])
		}
	}
}

func TestDirectReadbackOneBitLate(t *testing.T) {
	reply := BytesToBits([]byte{0xc3})
	b := mustBridge(t, Direct(), &replySink{reply: reply})
	tdo := tdoAtRises(runBits(b, zeros(len(reply)+1)))
	for i := range reply {
		if tdo[i+1] != reply[i] {
			t.Fatalf("tdo[%d] = %v, want reply bit %d = %v", i+1, tdo[i+1], i, reply[i])
		}
	}
}
