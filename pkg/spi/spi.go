// Package spi provides SPI peripheral models that can be attached to the
// SPI side of a bridge.
//
// All models follow SPI mode 0 (and mode 3 once clocking has started): MOSI
// is sampled on the rising clock edge and MISO changes on the falling edge,
// with the first MISO bit valid as soon as chip-select asserts.
package spi

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/bscanspi/pkg/bridge"
)

// Transaction is everything clocked during one chip-select assertion.
type Transaction struct {
	MOSI []bool
	MISO []bool // MISO level sampled on the same rising edges as MOSI
}

// Bits returns the number of clock cycles in the transaction.
func (t Transaction) Bits() int {
	return len(t.MOSI)
}

// Out returns the MOSI bits packed MSB first.
func (t Transaction) Out() []byte {
	return bridge.BitsToBytes(t.MOSI)
}

// In returns the MISO bits packed MSB first.
func (t Transaction) In() []byte {
	return bridge.BitsToBytes(t.MISO)
}

func (t Transaction) String() string {
	return fmt.Sprintf("%d bits mosi=%X miso=%X", t.Bits(), t.Out(), t.In())
}

// edges tracks chip-select and clock transitions across Exchange calls.
type edges struct {
	selected bool
	clk      bool
}

type event struct {
	assert, release bool
	rising, falling bool
}

func (e *edges) update(p bridge.SPIPins) event {
	sel := !p.CSn
	ev := event{
		assert:  sel && !e.selected,
		release: !sel && e.selected,
		rising:  sel && p.Clk && !e.clk,
		falling: sel && !p.Clk && e.clk,
	}
	e.selected = sel
	e.clk = p.Clk
	return ev
}

// Slave is a shift-register peripheral that answers every transaction with
// the same reply, most significant bit first. MISO idles high outside
// chip-select and after the reply is exhausted.
type Slave struct {
	Reply []byte

	edges
	cur  Transaction
	txns []Transaction
	miso bool
}

// NewSlave returns a slave answering with reply.
func NewSlave(reply []byte) *Slave {
	return &Slave{Reply: append([]byte(nil), reply...), miso: true}
}

// Exchange implements bridge.SPISink.
func (s *Slave) Exchange(p bridge.SPIPins) bool {
	ev := s.update(p)
	if ev.release {
		s.txns = append(s.txns, s.cur)
		s.cur = Transaction{}
		s.miso = true
		return s.miso
	}
	if ev.assert {
		s.cur = Transaction{}
		s.miso = s.replyBit(0)
	}
	if ev.rising {
		s.cur.MOSI = append(s.cur.MOSI, p.MOSI)
		s.cur.MISO = append(s.cur.MISO, s.miso)
	}
	if ev.falling {
		s.miso = s.replyBit(len(s.cur.MOSI))
	}
	return s.miso
}

// Transactions returns the completed transactions.
func (s *Slave) Transactions() []Transaction {
	return append([]Transaction(nil), s.txns...)
}

// Pending returns the transaction in progress, if chip-select is asserted.
func (s *Slave) Pending() (Transaction, bool) {
	return s.cur, s.selected
}

func (s *Slave) replyBit(i int) bool {
	if i/8 >= len(s.Reply) {
		return true
	}
	return s.Reply[i/8]&(0x80>>uint(i%8)) != 0
}

// Loopback echoes every MOSI bit back on MISO one clock later.
type Loopback struct {
	edges
	last bool
	miso bool
}

// Exchange implements bridge.SPISink.
func (l *Loopback) Exchange(p bridge.SPIPins) bool {
	ev := l.update(p)
	if ev.assert || ev.release {
		l.last, l.miso = true, true
	}
	if ev.rising {
		l.last = p.MOSI
	}
	if ev.falling {
		l.miso = l.last
	}
	return l.miso
}

// Recorder passes pins through to another sink and keeps a trace of every
// exchange.
type Recorder struct {
	Sink  bridge.SPISink
	Trace []Sample
}

// Sample is one recorded exchange.
type Sample struct {
	bridge.SPIPins
	MISO bool
}

// Exchange implements bridge.SPISink.
func (r *Recorder) Exchange(p bridge.SPIPins) bool {
	miso := true
	if r.Sink != nil {
		miso = r.Sink.Exchange(p)
	}
	r.Trace = append(r.Trace, Sample{SPIPins: p, MISO: miso})
	return miso
}

// SelectedEdges counts rising clock edges seen with chip-select asserted.
func (r *Recorder) SelectedEdges() int {
	n := 0
	prev := false
	for _, s := range r.Trace {
		if s.Clk && !prev && !s.CSn {
			n++
		}
		prev = s.Clk
	}
	return n
}

// Waveform renders the recorded chip-select and clock levels as two text
// rows, one character per exchange.
func (r *Recorder) Waveform() string {
	var cs, clk strings.Builder
	cs.WriteString("cs_n ")
	clk.WriteString("clk  ")
	for _, s := range r.Trace {
		cs.WriteByte(level(s.CSn))
		clk.WriteByte(level(s.Clk))
	}
	return cs.String() + "\n" + clk.String()
}

func level(b bool) byte {
	if b {
		return '-'
	}
	return '_'
}
