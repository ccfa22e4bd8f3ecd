package tap

import (
	"testing"

	"github.com/OpenTraceLab/bscanspi/pkg/bridge"
)

type recordingLogic struct {
	samples []bridge.TapSample
	tdo     bool
}

func (r *recordingLogic) Step(s bridge.TapSample) bridge.Signals {
	r.samples = append(r.samples, s)
	return bridge.Signals{TDO: r.tdo}
}

func newTarget(t *testing.T, logic UserLogic) *Target {
	t.Helper()
	tg, err := NewTarget(Spartan3(), logic)
	if err != nil {
		t.Fatalf("NewTarget returned error: %v", err)
	}
	return tg
}

func walk(t *testing.T, tg *Target, to State) {
	t.Helper()
	seq, err := Path(tg.State(), to)
	if err != nil {
		t.Fatalf("Path returned error: %v", err)
	}
	for _, bit := range seq.TMS {
		tg.Clock(bit, false)
	}
}

// shift clocks tdi through the current shift state, leaving it on the last bit.
func shift(tg *Target, tdi []bool) []bool {
	out := make([]bool, len(tdi))
	for i, bit := range tdi {
		out[i] = tg.Clock(i == len(tdi)-1, bit)
	}
	return out
}

func lsbBits(v uint32, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v>>uint(i)&1 != 0
	}
	return out
}

func loadIR(t *testing.T, tg *Target, op uint32) []bool {
	t.Helper()
	walk(t, tg, StateShiftIR)
	out := shift(tg, lsbBits(op, tg.Config().IRLength))
	walk(t, tg, StateRunTestIdle)
	return out
}

func TestTargetConfigValidate(t *testing.T) {
	if err := Spartan3().Validate(); err != nil {
		t.Fatalf("Spartan3 invalid: %v", err)
	}
	bad := []TargetConfig{
		{IRLength: 1, User: 0, IDCodeInstr: 1},
		{IRLength: 6, User: 0x40, IDCodeInstr: 0x09},
		{IRLength: 6, User: 0x3f, IDCodeInstr: 0x09},
		{IRLength: 6, User: 0x09, IDCodeInstr: 0x09},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
	if _, err := NewTarget(Spartan3(), nil); err == nil {
		t.Fatalf("expected error for nil logic")
	}
}

func TestTargetIRCaptureAndUpdate(t *testing.T) {
	tg := newTarget(t, &recordingLogic{})
	if tg.Instruction() != 0x09 || tg.Selected() {
		t.Fatalf("reset instruction = %#x, want IDCODE", tg.Instruction())
	}

	out := loadIR(t, tg, 0x02)
	want := []bool{true, false, false, false, false, false}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("captured IR = %v, want %v", out, want)
		}
	}
	// applied on the way out of Update-IR
	if tg.Instruction() != 0x02 || !tg.Selected() {
		t.Fatalf("instruction = %#x, want USER1", tg.Instruction())
	}

	walk(t, tg, StateTestLogicReset)
	tg.Clock(true, false)
	if tg.Selected() {
		t.Fatalf("user register still selected after Test-Logic-Reset")
	}
}

func TestTargetIDCode(t *testing.T) {
	tg := newTarget(t, &recordingLogic{})
	walk(t, tg, StateShiftDR)
	out := shift(tg, make([]bool, 32))
	var id uint32
	for i, b := range out {
		if b {
			id |= 1 << uint(i)
		}
	}
	if id != 0x01414093 {
		t.Fatalf("idcode = %#08x, want 0x01414093", id)
	}
}

func TestTargetBypass(t *testing.T) {
	tg := newTarget(t, &recordingLogic{})
	loadIR(t, tg, 0x3f)
	walk(t, tg, StateShiftDR)
	in := []bool{true, false, true, true, false}
	out := shift(tg, in)
	if out[0] {
		t.Fatalf("bypass captured high, want low")
	}
	for i := 1; i < len(in); i++ {
		if out[i] != in[i-1] {
			t.Fatalf("bypass out = %v for in %v", out, in)
		}
	}
}

func TestTargetGatesUserClock(t *testing.T) {
	logic := &recordingLogic{tdo: true}
	tg := newTarget(t, logic)
	loadIR(t, tg, 0x02)
	logic.samples = nil

	walk(t, tg, StateShiftDR) // Run-Test/Idle, Select-DR, Capture-DR
	out := shift(tg, []bool{true, false})

	if len(logic.samples) != 10 {
		t.Fatalf("samples = %d, want 10", len(logic.samples))
	}
	for i, s := range logic.samples[:4] {
		if !s.DRCK || !s.Select {
			t.Fatalf("idle sample %d = %+v, want DRCK held high while selected", i, s)
		}
	}
	capLow, capHigh := logic.samples[4], logic.samples[5]
	if capLow.DRCK || !capHigh.DRCK || !capLow.Capture || !capHigh.Capture {
		t.Fatalf("capture samples = %+v %+v, want one DRCK pulse with capture", capLow, capHigh)
	}
	for i, s := range logic.samples[6:] {
		if s.DRCK != (i%2 == 1) || !s.Shift || s.TDI != (i < 2) {
			t.Fatalf("shift sample %d = %+v", i, s)
		}
	}
	if !out[0] || !out[1] {
		t.Fatalf("tdo = %v, want user logic output", out)
	}
}

func TestTargetDrivesBridge(t *testing.T) {
	cfg := bridge.Fpgaprog()
	b, err := bridge.New(cfg, nil)
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}
	tg := newTarget(t, b)
	loadIR(t, tg, 0x02)
	walk(t, tg, StateShiftDR)

	frame, err := bridge.EncodeFrame(cfg, make([]bool, 3))
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	for _, bit := range frame {
		tg.Clock(false, bit)
	}
	if !b.State().Active || !b.State().Start {
		t.Fatalf("bridge state = %+v, want transfer started", b.State())
	}

	// a new scan resets the bridge through Capture-DR
	tg.Clock(true, false)
	walk(t, tg, StateCaptureDR)
	tg.Clock(false, false)
	if b.State().Active {
		t.Fatalf("bridge still active after Capture-DR")
	}
}
