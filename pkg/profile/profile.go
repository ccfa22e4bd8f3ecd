// Package profile reads bridge profiles: named bridge configurations paired
// with the instruction layout of the device that hosts them.
//
// A profile file holds any number of blocks:
//
//	# Papilio One with the fpgaprog bitstream
//	bridge "papilio" {
//	    base        = fpgaprog
//	    readback    = shift
//	    readback_width = 8
//	    user        = 0x02
//	}
//
// Settings not given keep the value from base, or from the default
// configuration when base is absent.
package profile

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/bscanspi/pkg/bridge"
	"github.com/OpenTraceLab/bscanspi/pkg/tap"
)

// Profile is a resolved, validated bridge profile.
type Profile struct {
	Name   string
	Bridge *bridge.Config
	Target tap.TargetConfig
	Source string // file the profile came from, empty for presets
}

func (p *Profile) String() string {
	return fmt.Sprintf("%s ir=%d user=%#x", p.Bridge, p.Target.IRLength, p.Target.User)
}

// Parser turns profile text into profiles.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser builds the profile grammar.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(profileLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
	)
	if err != nil {
		return nil, fmt.Errorf("profile: failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse reads profiles from r. name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) ([]*Profile, error) {
	file, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("profile: parse error: %w", err)
	}
	return resolve(name, file)
}

// ParseString reads profiles from a string.
func (p *Parser) ParseString(input string) ([]*Profile, error) {
	file, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("profile: parse error: %w", err)
	}
	return resolve("", file)
}

// Load reads every profile in the file at path.
func Load(path string) ([]*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: failed to open file: %w", err)
	}
	defer f.Close()

	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	return p.Parse(path, f)
}

// Presets returns one profile per built-in bridge preset, hosted on a
// Spartan-3 USER1 register, sorted by name.
func Presets() []*Profile {
	var out []*Profile
	for name, cfg := range bridge.Presets() {
		out = append(out, &Profile{Name: name, Bridge: cfg, Target: tap.Spartan3()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve finds name in the profile file at path, or among the presets when
// path is empty.
func Resolve(name, path string) (*Profile, error) {
	profiles := Presets()
	if path != "" {
		var err error
		if profiles, err = Load(path); err != nil {
			return nil, err
		}
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("profile: %q not found", name)
}

func resolve(source string, file *File) ([]*Profile, error) {
	seen := make(map[string]bool)
	out := make([]*Profile, 0, len(file.Bridges))
	for _, decl := range file.Bridges {
		if seen[decl.Name] {
			return nil, fmt.Errorf("profile: %s: duplicate bridge %q", decl.Pos, decl.Name)
		}
		seen[decl.Name] = true

		p, err := build(decl)
		if err != nil {
			return nil, err
		}
		p.Source = source
		out = append(out, p)
	}
	return out, nil
}

func build(decl *BridgeDecl) (*Profile, error) {
	cfg := bridge.DefaultConfig()
	for _, s := range decl.Settings {
		if s.Key != "base" {
			continue
		}
		base, err := bridge.Preset(s.Value.text())
		if err != nil {
			return nil, fmt.Errorf("profile: %s: %w", s.Pos, err)
		}
		cfg = base
	}
	cfg.Name = decl.Name
	p := &Profile{Name: decl.Name, Bridge: cfg, Target: tap.Spartan3()}

	for _, s := range decl.Settings {
		if err := p.apply(s.Key, s.Value); err != nil {
			return nil, fmt.Errorf("profile: %s: %s: %w", s.Pos, s.Key, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("profile: bridge %q: %w", decl.Name, err)
	}
	if err := p.Target.Validate(); err != nil {
		return nil, fmt.Errorf("profile: bridge %q: %w", decl.Name, err)
	}
	return p, nil
}

func (p *Profile) apply(key string, v *Value) error {
	cfg := p.Bridge
	switch key {
	case "base":
		return nil
	case "magic":
		return setUint(v, 64, &cfg.Magic)
	case "magic_width":
		return setInt(v, &cfg.MagicWidth)
	case "accumulator":
		return setInt(v, &cfg.AccumulatorWidth)
	case "readback_width", "readback_depth":
		return setInt(v, &cfg.ReadbackParameter)
	case "order":
		return choose(v, &cfg.Order, map[string]bridge.BitOrder{
			"msb": bridge.MSBFirst, "lsb": bridge.LSBFirst,
		})
	case "decrement":
		return choose(v, &cfg.Decrement, map[string]bridge.DecrementMode{
			"load": bridge.DecrementOnLoad, "selected": bridge.DecrementWhileSelected,
		})
	case "framing":
		return choose(v, &cfg.Framing, map[string]bridge.Framing{
			"magic": bridge.FramingMagic, "shift": bridge.FramingShift,
		})
	case "readback":
		return choose(v, &cfg.Readback, map[string]bridge.ReadbackMode{
			"shift": bridge.ReadbackShift, "memory": bridge.ReadbackMemory,
		})
	case "ir_length":
		return setInt(v, &p.Target.IRLength)
	case "user":
		return setUint32(v, &p.Target.User)
	case "idcode_instr":
		return setUint32(v, &p.Target.IDCodeInstr)
	case "idcode":
		return setUint32(v, &p.Target.IDCode)
	}
	return fmt.Errorf("unknown setting")
}

func number(v *Value, bits int) (uint64, error) {
	if v.Number == nil {
		return 0, fmt.Errorf("want a number, got %q", v.text())
	}
	return strconv.ParseUint(*v.Number, 0, bits)
}

func setUint(v *Value, bits int, dst *uint64) error {
	n, err := number(v, bits)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setUint32(v *Value, dst *uint32) error {
	n, err := number(v, 32)
	if err != nil {
		return err
	}
	*dst = uint32(n)
	return nil
}

func setInt(v *Value, dst *int) error {
	n, err := number(v, 31)
	if err != nil {
		return err
	}
	*dst = int(n)
	return nil
}

func choose[T any](v *Value, dst *T, options map[string]T) error {
	word := strings.ToLower(v.text())
	if opt, ok := options[word]; ok {
		*dst = opt
		return nil
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Errorf("%q is not one of %s", word, strings.Join(keys, ", "))
}
