package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// LengthWidth is the width of the transfer length field in a frame header.
const LengthWidth = 16

// MaxAccumulatorWidth bounds Config.AccumulatorWidth to a machine word.
const MaxAccumulatorWidth = 64

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("bridge: invalid config")

// BitOrder selects the direction in which TDI bits enter the accumulator.
type BitOrder uint8

const (
	// MSBFirst shifts the accumulator up and inserts TDI at bit 0, so the
	// first header bit shifted ends up as the most significant bit.
	MSBFirst BitOrder = iota
	// LSBFirst shifts the accumulator down and inserts TDI at the top bit,
	// so the first header bit shifted ends up as the least significant bit.
	LSBFirst
)

func (o BitOrder) String() string {
	switch o {
	case MSBFirst:
		return "msb"
	case LSBFirst:
		return "lsb"
	}
	return fmt.Sprintf("BitOrder(%d)", o)
}

// DecrementMode selects when the transfer length counter starts counting.
type DecrementMode uint8

const (
	// DecrementOnLoad decrements on every fall tick while the counter is
	// nonzero, starting the tick after the load, whether or not chip-select
	// has been seen. The stop flag follows one rise tick later.
	DecrementOnLoad DecrementMode = iota
	// DecrementWhileSelected decrements on rise ticks only while chip-select
	// is asserted, and evaluates the stop flag on the following fall tick.
	// The window carries the same number of bits but deasserts half a clock
	// earlier.
	DecrementWhileSelected
)

func (m DecrementMode) String() string {
	switch m {
	case DecrementOnLoad:
		return "load"
	case DecrementWhileSelected:
		return "selected"
	}
	return fmt.Sprintf("DecrementMode(%d)", m)
}

// ReadbackMode selects the readback buffer design.
type ReadbackMode uint8

const (
	// ReadbackShift realigns MISO through a shift register of
	// ReadbackParameter bits. Zero bits is a combinational passthrough.
	ReadbackShift ReadbackMode = iota
	// ReadbackMemory stores MISO in a circular bit memory of
	// ReadbackParameter entries and replays it one tick later.
	ReadbackMemory
)

func (m ReadbackMode) String() string {
	switch m {
	case ReadbackShift:
		return "shift"
	case ReadbackMemory:
		return "memory"
	}
	return fmt.Sprintf("ReadbackMode(%d)", m)
}

// Framing selects how the chip-select window is derived.
type Framing uint8

const (
	// FramingMagic opens the window from a magic/length header.
	FramingMagic Framing = iota
	// FramingShift asserts chip-select whenever the user register is
	// selected and in Shift-DR. No header is consumed.
	FramingShift
)

func (f Framing) String() string {
	switch f {
	case FramingMagic:
		return "magic"
	case FramingShift:
		return "shift"
	}
	return fmt.Sprintf("Framing(%d)", f)
}

// Config is the build-time configuration of a bridge. It is read once by New.
type Config struct {
	Name string

	MagicWidth       int    // bits compared against Magic, typically 16 or 32
	Magic            uint64 // magic pattern, right aligned
	AccumulatorWidth int    // shift accumulator width, at least MagicWidth+16

	Order     BitOrder
	Decrement DecrementMode
	Framing   Framing

	Readback          ReadbackMode
	ReadbackParameter int // shift register width or memory depth
}

// DefaultConfig returns the xc3sprog-compatible configuration.
func DefaultConfig() *Config {
	return Xc3sprog()
}

// Xc3sprog returns the configuration expected by xc3sprog: a 32-bit magic,
// 48-bit accumulator and a 16 Kibit readback memory.
func Xc3sprog() *Config {
	return &Config{
		Name:              "xc3sprog",
		MagicWidth:        32,
		Magic:             0x59a659a6,
		AccumulatorWidth:  48,
		Order:             MSBFirst,
		Decrement:         DecrementOnLoad,
		Framing:           FramingMagic,
		Readback:          ReadbackMemory,
		ReadbackParameter: 1 << 14,
	}
}

// Fpgaprog returns the configuration expected by fpgaprog and
// papilio-loader: a 16-bit magic, 32-bit accumulator and an 8-bit readback
// shift register.
func Fpgaprog() *Config {
	return &Config{
		Name:              "fpgaprog",
		MagicWidth:        16,
		Magic:             0x59a6,
		AccumulatorWidth:  32,
		Order:             MSBFirst,
		Decrement:         DecrementOnLoad,
		Framing:           FramingMagic,
		Readback:          ReadbackShift,
		ReadbackParameter: 8,
	}
}

// Direct returns the headerless proxy configuration: chip-select follows
// Shift-DR and MISO comes back one bit late.
func Direct() *Config {
	return &Config{
		Name:              "direct",
		MagicWidth:        16,
		Magic:             0x59a6,
		AccumulatorWidth:  32,
		Order:             MSBFirst,
		Decrement:         DecrementOnLoad,
		Framing:           FramingShift,
		Readback:          ReadbackShift,
		ReadbackParameter: 1,
	}
}

// Presets returns the built-in configurations keyed by name.
func Presets() map[string]*Config {
	out := make(map[string]*Config)
	for _, c := range []*Config{Xc3sprog(), Fpgaprog(), Direct()} {
		out[c.Name] = c
	}
	return out
}

// Preset looks up a built-in configuration by name, case-insensitively.
func Preset(name string) (*Config, error) {
	if c, ok := Presets()[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("bridge: unknown preset %q", name)
}

// Validate checks that the configuration describes a buildable bridge.
func (c *Config) Validate() error {
	if c.MagicWidth < 1 || c.MagicWidth > MaxAccumulatorWidth-LengthWidth {
		return fmt.Errorf("%w: magic width %d out of range [1, %d]",
			ErrInvalidConfig, c.MagicWidth, MaxAccumulatorWidth-LengthWidth)
	}
	if c.Magic>>uint(c.MagicWidth) != 0 {
		return fmt.Errorf("%w: magic %#x wider than %d bits", ErrInvalidConfig, c.Magic, c.MagicWidth)
	}
	if c.AccumulatorWidth < c.HeaderWidth() || c.AccumulatorWidth > MaxAccumulatorWidth {
		return fmt.Errorf("%w: accumulator width %d out of range [%d, %d]",
			ErrInvalidConfig, c.AccumulatorWidth, c.HeaderWidth(), MaxAccumulatorWidth)
	}
	if c.Order > LSBFirst {
		return fmt.Errorf("%w: bit order %s", ErrInvalidConfig, c.Order)
	}
	if c.Decrement > DecrementWhileSelected {
		return fmt.Errorf("%w: decrement mode %s", ErrInvalidConfig, c.Decrement)
	}
	if c.Framing > FramingShift {
		return fmt.Errorf("%w: framing %s", ErrInvalidConfig, c.Framing)
	}
	switch c.Readback {
	case ReadbackShift:
		if c.ReadbackParameter < 0 {
			return fmt.Errorf("%w: negative shift readback width %d", ErrInvalidConfig, c.ReadbackParameter)
		}
	case ReadbackMemory:
		if c.ReadbackParameter < 2 {
			return fmt.Errorf("%w: readback memory depth %d, need at least 2", ErrInvalidConfig, c.ReadbackParameter)
		}
	default:
		return fmt.Errorf("%w: readback mode %s", ErrInvalidConfig, c.Readback)
	}
	return nil
}

// HeaderWidth is the number of accumulator bits a frame header occupies.
func (c *Config) HeaderWidth() int {
	return c.MagicWidth + LengthWidth
}

func (c *Config) String() string {
	return fmt.Sprintf("%s: framing=%s magic=%#x/%d acc=%d order=%s decrement=%s readback=%s/%d",
		c.Name, c.Framing, c.Magic, c.MagicWidth, c.AccumulatorWidth,
		c.Order, c.Decrement, c.Readback, c.ReadbackParameter)
}
