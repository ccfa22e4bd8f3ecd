package host

import (
	"errors"

	"github.com/OpenTraceLab/bscanspi/pkg/jtag"
	"github.com/OpenTraceLab/bscanspi/pkg/tap"
)

// transport keeps the host's copy of the TAP state in step with every bit
// handed to the adapter.
type transport struct {
	adapter jtag.Adapter
	tap     *tap.StateMachine
}

func newTransport(adapter jtag.Adapter) *transport {
	return &transport{adapter: adapter, tap: tap.NewStateMachine()}
}

func (t *transport) reset() error {
	if err := t.adapter.ResetTAP(true); err != nil && !errors.Is(err, jtag.ErrNotImplemented) {
		return err
	}
	seq := t.tap.Reset()
	_, err := t.dispatch(false, seq.TMS, nil)
	return err
}

func (t *transport) gotoState(target tap.State) error {
	from := t.tap.State()
	seq, err := t.tap.GoTo(target)
	if err != nil {
		return err
	}
	if len(seq.TMS) == 0 {
		return nil
	}
	_, err = t.dispatch(from.IsIR(), seq.TMS, nil)
	return err
}

// scan shifts tdi through the register the TAP is currently shifting and
// leaves the shift state on the last bit.
func (t *transport) scan(tdi []bool) ([]bool, error) {
	if len(tdi) == 0 {
		return nil, nil
	}
	ir := t.tap.State() == tap.StateShiftIR
	tms := make([]bool, len(tdi))
	tms[len(tms)-1] = true
	for _, bit := range tms {
		t.tap.Clock(bit)
	}
	tdo, err := t.dispatch(ir, tms, tdi)
	if err != nil {
		return nil, err
	}
	return jtag.UnpackBits(tdo, len(tdi)), nil
}

func (t *transport) dispatch(ir bool, tms, tdi []bool) ([]byte, error) {
	if len(tms) == 0 {
		return nil, nil
	}
	bits := len(tms)
	tmsBytes := jtag.PackBits(tms)
	tdiBytes := jtag.PackBits(tdi)
	if len(tdi) == 0 {
		tdiBytes = make([]byte, len(tmsBytes))
	}
	if ir {
		return t.adapter.ShiftIR(tmsBytes, tdiBytes, bits)
	}
	return t.adapter.ShiftDR(tmsBytes, tdiBytes, bits)
}
