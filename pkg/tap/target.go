package tap

import (
	"fmt"

	"github.com/OpenTraceLab/bscanspi/pkg/bridge"
)

// UserLogic is the fabric logic attached to a boundary-scan user data
// register. *bridge.Bridge satisfies it.
type UserLogic interface {
	Step(s bridge.TapSample) bridge.Signals
}

// TargetConfig describes the instruction register of a simulated device.
type TargetConfig struct {
	IRLength    int    // instruction register length in bits
	User        uint32 // opcode that selects the user data register
	IDCodeInstr uint32 // opcode that selects the IDCODE register
	IDCode      uint32
}

// Spartan3 returns the instruction layout of a Spartan-3 with USER1 as the
// user register.
func Spartan3() TargetConfig {
	return TargetConfig{
		IRLength:    6,
		User:        0x02,
		IDCodeInstr: 0x09,
		IDCode:      0x01414093,
	}
}

// Validate checks opcode widths against the instruction register length.
func (c TargetConfig) Validate() error {
	if c.IRLength < 2 || c.IRLength > 32 {
		return fmt.Errorf("tap: instruction length %d out of range [2, 32]", c.IRLength)
	}
	bypass := c.bypass()
	for name, op := range map[string]uint32{"user": c.User, "idcode": c.IDCodeInstr} {
		if op > bypass {
			return fmt.Errorf("tap: %s opcode %#x wider than %d bits", name, op, c.IRLength)
		}
		if op == bypass {
			return fmt.Errorf("tap: %s opcode %#x collides with BYPASS", name, op)
		}
	}
	if c.User == c.IDCodeInstr {
		return fmt.Errorf("tap: user and idcode opcodes are both %#x", c.User)
	}
	return nil
}

func (c TargetConfig) bypass() uint32 {
	return uint32(1)<<uint(c.IRLength) - 1
}

// Target is a single boundary-scan device. Each call to Clock is one TCK
// period: the user logic sees a TCK-low sample followed by a TCK-high sample,
// then the controller advances on the rising edge.
//
// The user logic clock is TCK gated to Capture-DR and Shift-DR while the user
// instruction is loaded, and idles high otherwise.
type Target struct {
	cfg   TargetConfig
	logic UserLogic
	ctrl  StateMachine

	ir      uint32 // active instruction
	irShift uint32
	bypass  bool
	idShift uint32

	cycles uint64
}

// NewTarget builds a target in Test-Logic-Reset with IDCODE loaded.
func NewTarget(cfg TargetConfig, logic UserLogic) (*Target, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logic == nil {
		return nil, fmt.Errorf("tap: target needs user logic")
	}
	t := &Target{cfg: cfg, logic: logic}
	t.Reset()
	return t, nil
}

// Config returns the instruction layout.
func (t *Target) Config() TargetConfig {
	return t.cfg
}

// Reset is an asynchronous TRST: the controller returns to Test-Logic-Reset
// and IDCODE becomes the active instruction.
func (t *Target) Reset() {
	t.ctrl.state = StateTestLogicReset
	t.ir = t.cfg.IDCodeInstr
}

func (t *Target) State() State {
	return t.ctrl.State()
}

// Instruction returns the active instruction opcode.
func (t *Target) Instruction() uint32 {
	return t.ir
}

// Selected reports whether the user data register is selected.
func (t *Target) Selected() bool {
	return t.ir == t.cfg.User
}

// Cycles returns the number of TCK periods clocked.
func (t *Target) Cycles() uint64 {
	return t.cycles
}

// Clock runs one TCK period and returns the TDO level the host samples on
// its rising edge. TDO reads low outside the shift states.
func (t *Target) Clock(tms, tdi bool) bool {
	st := t.ctrl.State()
	t.cycles++

	// instruction changes take effect on the falling edge of Update-IR and
	// Test-Logic-Reset
	switch st {
	case StateUpdateIR:
		t.ir = t.irShift
	case StateTestLogicReset:
		t.ir = t.cfg.IDCodeInstr
	}

	sel := t.Selected()
	s := bridge.TapSample{
		TDI:     tdi,
		Capture: st == StateCaptureDR,
		Reset:   st == StateTestLogicReset,
		Update:  st == StateUpdateDR,
		Select:  sel,
		Shift:   st == StateShiftDR,
	}
	gated := sel && (s.Capture || s.Shift)

	low := s
	low.DRCK = !gated
	t.logic.Step(low)

	high := s
	high.DRCK = true
	sig := t.logic.Step(high)

	tdo := false
	switch st {
	case StateShiftIR:
		tdo = t.irShift&1 != 0
	case StateShiftDR:
		switch t.ir {
		case t.cfg.User:
			tdo = sig.TDO
		case t.cfg.IDCodeInstr:
			tdo = t.idShift&1 != 0
		default:
			tdo = t.bypass
		}
	}

	t.shiftRegisters(st, tdi)
	t.ctrl.Clock(tms)
	return tdo
}

func (t *Target) shiftRegisters(st State, tdi bool) {
	var in uint32
	if tdi {
		in = 1
	}
	switch st {
	case StateCaptureIR:
		t.irShift = 0b01
	case StateShiftIR:
		t.irShift = t.irShift>>1 | in<<uint(t.cfg.IRLength-1)
	case StateCaptureDR:
		t.bypass = false
		t.idShift = t.cfg.IDCode
	case StateShiftDR:
		switch t.ir {
		case t.cfg.User:
		case t.cfg.IDCodeInstr:
			t.idShift = t.idShift>>1 | in<<31
		default:
			t.bypass = tdi
		}
	}
}
