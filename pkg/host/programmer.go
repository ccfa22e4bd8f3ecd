// Package host drives a JTAG-to-SPI bridge from the JTAG side: it selects
// the user register, frames transfers and realigns the bits read back.
package host

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/bscanspi/pkg/bridge"
	"github.com/OpenTraceLab/bscanspi/pkg/idcode"
	"github.com/OpenTraceLab/bscanspi/pkg/jtag"
	"github.com/OpenTraceLab/bscanspi/pkg/tap"
)

var (
	// ErrNoDevice is returned by Connect when the IDCODE scan reads an open
	// or shorted chain.
	ErrNoDevice = errors.New("host: no device on chain")
	// ErrNotConnected is returned by transfers issued before Connect.
	ErrNotConnected = errors.New("host: not connected")
)

// Programmer issues SPI transfers through a bridge. It assumes a single
// device on the chain.
type Programmer struct {
	xport *transport
	cfg   bridge.Config
	tcfg  tap.TargetConfig

	id        idcode.IDCode
	connected bool
}

// New validates both configurations and returns an unconnected programmer.
func New(adapter jtag.Adapter, cfg *bridge.Config, tcfg tap.TargetConfig) (*Programmer, error) {
	if adapter == nil {
		return nil, fmt.Errorf("host: adapter is nil")
	}
	if cfg == nil {
		cfg = bridge.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := tcfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Framing == bridge.FramingShift && cfg.Readback != bridge.ReadbackShift {
		return nil, fmt.Errorf("host: %s framing needs shift readback, have %s", cfg.Framing, cfg.Readback)
	}
	return &Programmer{xport: newTransport(adapter), cfg: *cfg, tcfg: tcfg}, nil
}

// Config returns the bridge configuration transfers are framed for.
func (p *Programmer) Config() bridge.Config {
	return p.cfg
}

// IDCode returns the IDCODE read by the last Connect.
func (p *Programmer) IDCode() idcode.IDCode {
	return p.id
}

// Connect resets the chain, reads the device IDCODE and loads the user
// instruction, leaving the TAP in Run-Test/Idle.
func (p *Programmer) Connect() (idcode.IDCode, error) {
	p.connected = false
	if err := p.xport.reset(); err != nil {
		return idcode.IDCode{}, fmt.Errorf("host: reset: %w", err)
	}

	bits, err := p.scanDR(make([]bool, 32))
	if err != nil {
		return idcode.IDCode{}, err
	}
	raw := bridge.Pack[uint32](bridge.Reverse(bits))
	if !idcode.Valid(raw) {
		return idcode.IDCode{}, fmt.Errorf("%w: idcode read %#08x", ErrNoDevice, raw)
	}
	p.id = idcode.Parse(raw)
	logger.Debugf("host: found %s", p.id)

	if err := p.loadInstruction(p.tcfg.User); err != nil {
		return idcode.IDCode{}, err
	}
	p.connected = true
	logger.Debugf("host: user register %#x selected", p.tcfg.User)
	return p.id, nil
}

// Transfer clocks out, most significant bit of each byte first, during one
// chip-select window and returns the bytes the slave drove on MISO.
func (p *Programmer) Transfer(out []byte) ([]byte, error) {
	in, err := p.TransferBits(bridge.BytesToBits(out))
	if err != nil {
		return nil, err
	}
	return bridge.BitsToBytes(in), nil
}

// TransferBits is Transfer for an arbitrary number of bits.
func (p *Programmer) TransferBits(out []bool) ([]bool, error) {
	if !p.connected {
		return nil, ErrNotConnected
	}
	n := len(out)
	if n == 0 {
		return nil, nil
	}
	if n > bridge.MaxTransferBits {
		return nil, fmt.Errorf("host: transfer of %d bits exceeds %d", n, bridge.MaxTransferBits)
	}

	frame, err := bridge.EncodeFrame(&p.cfg, out)
	if err != nil {
		return nil, err
	}
	header := len(frame) - n

	switch p.cfg.Readback {
	case bridge.ReadbackShift:
		// MISO comes back W bits late; at least one trailing bit is needed
		// to close the window before the scan ends
		w := p.cfg.ReadbackParameter
		tdo, err := p.scanDR(append(frame, make([]bool, max(w, 1))...))
		if err != nil {
			return nil, err
		}
		return tdo[header+w : header+w+n], nil

	case bridge.ReadbackMemory:
		if n > p.cfg.ReadbackParameter {
			return nil, fmt.Errorf("host: transfer of %d bits exceeds readback depth %d", n, p.cfg.ReadbackParameter)
		}
		if _, err := p.scanDR(append(frame, false)); err != nil {
			return nil, err
		}
		return p.scanDR(make([]bool, n))
	}
	return nil, fmt.Errorf("host: readback mode %s", p.cfg.Readback)
}

func (p *Programmer) loadInstruction(op uint32) error {
	if err := p.xport.gotoState(tap.StateShiftIR); err != nil {
		return err
	}
	bits := make([]bool, p.tcfg.IRLength)
	for i := range bits {
		bits[i] = op>>uint(i)&1 != 0
	}
	if _, err := p.xport.scan(bits); err != nil {
		return fmt.Errorf("host: load instruction %#x: %w", op, err)
	}
	return p.xport.gotoState(tap.StateRunTestIdle)
}

// scanDR runs one complete data register scan from Run-Test/Idle.
func (p *Programmer) scanDR(tdi []bool) ([]bool, error) {
	if err := p.xport.gotoState(tap.StateShiftDR); err != nil {
		return nil, err
	}
	tdo, err := p.xport.scan(tdi)
	if err != nil {
		return nil, fmt.Errorf("host: scan of %d bits: %w", len(tdi), err)
	}
	logger.Debugf("host: scanned %d bits", len(tdi))
	if err := p.xport.gotoState(tap.StateRunTestIdle); err != nil {
		return nil, err
	}
	return tdo, nil
}
