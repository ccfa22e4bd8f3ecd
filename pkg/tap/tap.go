// Package tap models the IEEE 1149.1 TAP controller and a boundary-scan
// target whose user data register is backed by pluggable logic.
package tap

import (
	"fmt"
	"slices"
)

// State is one of the 16 TAP controller states.
type State uint8

const (
	StateTestLogicReset State = iota
	StateRunTestIdle
	StateSelectDRScan
	StateCaptureDR
	StateShiftDR
	StateExit1DR
	StatePauseDR
	StateExit2DR
	StateUpdateDR
	StateSelectIRScan
	StateCaptureIR
	StateShiftIR
	StateExit1IR
	StatePauseIR
	StateExit2IR
	StateUpdateIR

	numStates
)

var stateNames = [numStates]string{
	"TestLogicReset", "RunTestIdle",
	"SelectDRScan", "CaptureDR", "ShiftDR", "Exit1DR", "PauseDR", "Exit2DR", "UpdateDR",
	"SelectIRScan", "CaptureIR", "ShiftIR", "Exit1IR", "PauseIR", "Exit2IR", "UpdateIR",
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Valid reports whether s names a TAP state.
func (s State) Valid() bool {
	return s < numStates
}

// IsIR reports whether s belongs to the instruction register column.
func (s State) IsIR() bool {
	return s >= StateSelectIRScan && s <= StateUpdateIR
}

// next[s][0] is the successor for TMS=0, next[s][1] for TMS=1.
var next = [numStates][2]State{
	StateTestLogicReset: {StateRunTestIdle, StateTestLogicReset},
	StateRunTestIdle:    {StateRunTestIdle, StateSelectDRScan},
	StateSelectDRScan:   {StateCaptureDR, StateSelectIRScan},
	StateCaptureDR:      {StateShiftDR, StateExit1DR},
	StateShiftDR:        {StateShiftDR, StateExit1DR},
	StateExit1DR:        {StatePauseDR, StateUpdateDR},
	StatePauseDR:        {StatePauseDR, StateExit2DR},
	StateExit2DR:        {StateShiftDR, StateUpdateDR},
	StateUpdateDR:       {StateRunTestIdle, StateSelectDRScan},
	StateSelectIRScan:   {StateCaptureIR, StateTestLogicReset},
	StateCaptureIR:      {StateShiftIR, StateExit1IR},
	StateShiftIR:        {StateShiftIR, StateExit1IR},
	StateExit1IR:        {StatePauseIR, StateUpdateIR},
	StatePauseIR:        {StatePauseIR, StateExit2IR},
	StateExit2IR:        {StateShiftIR, StateUpdateIR},
	StateUpdateIR:       {StateRunTestIdle, StateSelectDRScan},
}

// NextState returns the state entered on the next TCK rising edge. It panics
// on an invalid state.
func NextState(current State, tms bool) State {
	if !current.Valid() {
		panic(fmt.Sprintf("tap: unhandled state %d", current))
	}
	if tms {
		return next[current][1]
	}
	return next[current][0]
}

// Sequence is a TMS pattern together with the states it walks through.
// States has one more entry than TMS: the starting state comes first.
type Sequence struct {
	TMS    []bool
	States []State
}

// StateMachine tracks the controller state on the host side so that TMS
// patterns can be generated without talking to hardware.
type StateMachine struct {
	state State
}

// NewStateMachine returns a machine in Test-Logic-Reset.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateTestLogicReset}
}

func (m *StateMachine) State() State {
	return m.state
}

// Clock applies one TCK with the given TMS level and returns the new state.
func (m *StateMachine) Clock(tms bool) State {
	m.state = NextState(m.state, tms)
	return m.state
}

// Reset clocks five TMS=1 cycles, which reaches Test-Logic-Reset from any
// state.
func (m *StateMachine) Reset() Sequence {
	seq := Sequence{States: []State{m.state}}
	for i := 0; i < 5; i++ {
		seq.TMS = append(seq.TMS, true)
		seq.States = append(seq.States, m.Clock(true))
	}
	return seq
}

// GoTo moves the machine along the shortest path to target and returns the
// pattern used.
func (m *StateMachine) GoTo(target State) (Sequence, error) {
	seq, err := Path(m.state, target)
	if err != nil {
		return Sequence{}, err
	}
	for _, bit := range seq.TMS {
		m.Clock(bit)
	}
	return seq, nil
}

// Path finds the shortest TMS pattern between two states.
func Path(from, to State) (Sequence, error) {
	if !from.Valid() {
		return Sequence{}, fmt.Errorf("tap: invalid start state %d", from)
	}
	if !to.Valid() {
		return Sequence{}, fmt.Errorf("tap: invalid target state %d", to)
	}

	type hop struct {
		prev State
		tms  bool
		seen bool
	}
	var hops [numStates]hop
	hops[from].seen = true
	queue := []State{from}

	for len(queue) > 0 && !hops[to].seen {
		cur := queue[0]
		queue = queue[1:]
		for _, tms := range []bool{false, true} {
			n := NextState(cur, tms)
			if hops[n].seen {
				continue
			}
			hops[n] = hop{prev: cur, tms: tms, seen: true}
			queue = append(queue, n)
		}
	}
	if !hops[to].seen {
		return Sequence{}, fmt.Errorf("tap: no path from %s to %s", from, to)
	}

	var seq Sequence
	for s := to; s != from; s = hops[s].prev {
		seq.TMS = append(seq.TMS, hops[s].tms)
		seq.States = append(seq.States, s)
	}
	seq.States = append(seq.States, from)
	slices.Reverse(seq.TMS)
	slices.Reverse(seq.States)
	return seq, nil
}
