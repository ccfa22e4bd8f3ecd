package jtag

import (
	"fmt"

	"github.com/OpenTraceLab/bscanspi/pkg/bridge"
	"github.com/OpenTraceLab/bscanspi/pkg/tap"
)

// ShiftRegion identifies the register a shift request was issued for.
type ShiftRegion uint8

const (
	ShiftRegionIR ShiftRegion = iota
	ShiftRegionDR
)

// ShiftOp records one shift request.
type ShiftOp struct {
	Region ShiftRegion
	TMS    []byte
	TDI    []byte
	Bits   int
}

// SimAdapter clocks an in-memory boundary-scan target. Every bit of every
// request runs one full TCK period through the target and its user logic.
type SimAdapter struct {
	InfoData AdapterInfo
	SpeedHz  int

	target    *tap.Target
	lastShift ShiftOp
	resets    int
	hardReset int
}

// NewSimAdapter wraps target.
func NewSimAdapter(info AdapterInfo, target *tap.Target) *SimAdapter {
	return &SimAdapter{InfoData: info, target: target}
}

// NewBridgeSim builds a bridge from cfg, attaches sink to its SPI side and
// places it behind a simulated device described by tcfg.
func NewBridgeSim(cfg *bridge.Config, tcfg tap.TargetConfig, sink bridge.SPISink) (*SimAdapter, *bridge.Bridge, error) {
	b, err := bridge.New(cfg, sink)
	if err != nil {
		return nil, nil, err
	}
	target, err := tap.NewTarget(tcfg, b)
	if err != nil {
		return nil, nil, err
	}
	info := AdapterInfo{
		Name:         "bridge-sim",
		Vendor:       "simulated",
		Model:        b.Config().Name,
		SupportsTRST: true,
		Notes:        fmt.Sprintf("user opcode %#x, IR length %d", tcfg.User, tcfg.IRLength),
	}
	return NewSimAdapter(info, target), b, nil
}

// Target returns the simulated device.
func (s *SimAdapter) Target() *tap.Target {
	return s.target
}

// LastShift returns a copy of the most recent shift request.
func (s *SimAdapter) LastShift() ShiftOp {
	return ShiftOp{
		Region: s.lastShift.Region,
		TMS:    append([]byte(nil), s.lastShift.TMS...),
		TDI:    append([]byte(nil), s.lastShift.TDI...),
		Bits:   s.lastShift.Bits,
	}
}

// ResetCounts reports how many resets were requested in total and how many
// of those were hard.
func (s *SimAdapter) ResetCounts() (soft, hard int) {
	return s.resets, s.hardReset
}

func (s *SimAdapter) Info() (AdapterInfo, error) {
	return s.InfoData, nil
}

func (s *SimAdapter) ShiftIR(tms, tdi []byte, bits int) ([]byte, error) {
	return s.shift(ShiftRegionIR, tms, tdi, bits)
}

func (s *SimAdapter) ShiftDR(tms, tdi []byte, bits int) ([]byte, error) {
	return s.shift(ShiftRegionDR, tms, tdi, bits)
}

// ResetTAP drives TRST when hard is set, otherwise five TMS=1 clocks.
func (s *SimAdapter) ResetTAP(hard bool) error {
	s.resets++
	if hard {
		s.hardReset++
		s.target.Reset()
		return nil
	}
	for i := 0; i < 5; i++ {
		s.target.Clock(true, false)
	}
	return nil
}

func (s *SimAdapter) SetSpeed(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("jtag: invalid speed %dHz", hz)
	}
	s.SpeedHz = hz
	return nil
}

func (s *SimAdapter) shift(region ShiftRegion, tms, tdi []byte, bits int) ([]byte, error) {
	if _, err := ValidateShiftBuffers(tms, tdi, bits); err != nil {
		return nil, err
	}
	s.lastShift = ShiftOp{
		Region: region,
		TMS:    append([]byte(nil), tms...),
		TDI:    append([]byte(nil), tdi...),
		Bits:   bits,
	}

	tmsBits := UnpackBits(tms, bits)
	tdiBits := UnpackBits(tdi, bits)
	out := make([]bool, bits)
	for i := range out {
		out[i] = s.target.Clock(tmsBits[i], tdiBits[i])
	}
	return PackBits(out), nil
}
