package bridge

import "fmt"

// Phase identifies one of the two update phases derived from DRCK.
type Phase uint8

const (
	PhaseRise Phase = iota
	PhaseFall
)

func (p Phase) String() string {
	switch p {
	case PhaseRise:
		return "rise"
	case PhaseFall:
		return "fall"
	}
	return fmt.Sprintf("Phase(%d)", p)
}

// ClockDomains turns a sampled DRCK level into rise and fall ticks. DRCK is
// assumed low at power-up, so a first sample with DRCK high is a rising edge.
type ClockDomains struct {
	level bool
	rises uint64
	falls uint64
}

// Edge records the new DRCK level and reports the phase whose registers
// update on this sample, if the level changed.
func (d *ClockDomains) Edge(drck bool) (Phase, bool) {
	if drck == d.level {
		return 0, false
	}
	d.level = drck
	if drck {
		d.rises++
		return PhaseRise, true
	}
	d.falls++
	return PhaseFall, true
}

// Level returns the last sampled DRCK level.
func (d *ClockDomains) Level() bool {
	return d.level
}

// Ticks returns how many rise and fall ticks have been produced.
func (d *ClockDomains) Ticks() (rise, fall uint64) {
	return d.rises, d.falls
}
