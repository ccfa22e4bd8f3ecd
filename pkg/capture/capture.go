// Package capture decodes logic-analyzer recordings of the SPI side of a
// bridge so they can be checked against what the host sent.
package capture

import (
	"fmt"
	"io"
	"os"

	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"

	"github.com/OpenTraceLab/bscanspi/pkg/spi"
)

// Transaction is one decoded chip-select assertion.
type Transaction struct {
	Start float64 // seconds from capture start
	MOSI  []byte
	MISO  []byte
}

func (t Transaction) String() string {
	return fmt.Sprintf("t=%.6fs mosi=%X miso=%X", t.Start, t.MOSI, t.MISO)
}

// Channels names the exported digital channel files of one capture.
type Channels struct {
	Clk, CS, MOSI, MISO string
}

// OpenDigital reads one Saleae binary digital export.
func OpenDigital(path string) (*saleae.DigitalFile, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer fp.Close()
	df, err := saleae.ReadDigitalFile(fp)
	if err != nil {
		return nil, fmt.Errorf("capture: read %s: %w", path, err)
	}
	return df, nil
}

// Load opens all four channel files and decodes them.
func Load(ch Channels) ([]Transaction, error) {
	var files [4]*saleae.DigitalFile
	for i, path := range []string{ch.Clk, ch.CS, ch.MOSI, ch.MISO} {
		df, err := OpenDigital(path)
		if err != nil {
			return nil, err
		}
		files[i] = df
	}
	return Decode(files[0], files[1], files[2], files[3])
}

// Decode runs the SPI analyzer over the four channels.
func Decode(clk, cs, mosi, miso *saleae.DigitalFile) ([]Transaction, error) {
	an := analyzers.SPI{}
	txs, err := an.Scan(clk, cs, mosi, miso)
	if err != nil {
		return nil, fmt.Errorf("capture: decode: %w", err)
	}
	return FromAnalyzer(txs), nil
}

// FromAnalyzer converts analyzer output.
func FromAnalyzer(txs []analyzers.TxSPI) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = Transaction{
			Start: tx.StartTime(),
			MOSI:  append([]byte(nil), tx.SDO...),
			MISO:  append([]byte(nil), tx.SDI...),
		}
	}
	return out
}

// FromSim converts simulated slave transactions so they can be compared
// with a capture. Partial trailing bytes are zero padded.
func FromSim(txs []spi.Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = Transaction{MOSI: tx.Out(), MISO: tx.In()}
	}
	return out
}

// Write prints one transaction per line.
func Write(w io.Writer, txs []Transaction) error {
	for i, tx := range txs {
		if _, err := fmt.Fprintf(w, "%3d %s\n", i, tx); err != nil {
			return err
		}
	}
	return nil
}
