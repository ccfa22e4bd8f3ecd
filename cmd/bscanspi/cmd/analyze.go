package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/bscanspi/pkg/capture"
)

var (
	analyzeChannels capture.Channels
	analyzeExpect   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Decode a logic-analyzer capture of the SPI side",
	Long: `Decode Saleae binary digital exports of SCLK, CS, MOSI and MISO into SPI
transactions. With --expect, fail unless some transaction sent those bytes.

Examples:
  bscanspi analyze --clk digital_0.bin --cs digital_1.bin --mosi digital_2.bin --miso digital_3.bin`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeChannels.Clk, "clk", "", "SCLK channel export")
	analyzeCmd.Flags().StringVar(&analyzeChannels.CS, "cs", "", "chip-select channel export")
	analyzeCmd.Flags().StringVar(&analyzeChannels.MOSI, "mosi", "", "MOSI channel export")
	analyzeCmd.Flags().StringVar(&analyzeChannels.MISO, "miso", "", "MISO channel export")
	analyzeCmd.Flags().StringVar(&analyzeExpect, "expect", "", "MOSI bytes that must appear, hex")
	for _, name := range []string{"clk", "cs", "mosi", "miso"} {
		analyzeCmd.MarkFlagRequired(name)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var want []byte
	if analyzeExpect != "" {
		var err error
		if want, err = parseHex("expect", analyzeExpect); err != nil {
			return err
		}
	}

	txs, err := capture.Load(analyzeChannels)
	if err != nil {
		return err
	}
	fmt.Printf("Decoded %d transaction(s):\n", len(txs))
	if err := capture.Write(os.Stdout, txs); err != nil {
		return err
	}

	if want != nil {
		for _, tx := range txs {
			if bytes.HasPrefix(tx.MOSI, want) {
				return nil
			}
		}
		return fmt.Errorf("no transaction sent %X", want)
	}
	return nil
}
