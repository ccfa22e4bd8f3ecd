package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/bscanspi/pkg/bridge"
)

var (
	frameLength int
	frameData   string
)

var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Print the TDI bits of a transfer frame",
	Long: `Encode the header that opens a chip-select window of the given length, or a
complete frame around --data, in the bit order the selected profile expects.

Examples:
  bscanspi frame --profile fpgaprog --length 5
  bscanspi frame --profile xc3sprog --data 9f000000`,
	Args: cobra.NoArgs,
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)
	addProfileFlags(frameCmd)
	frameCmd.Flags().IntVarP(&frameLength, "length", "l", 0, "window length in bits")
	frameCmd.Flags().StringVarP(&frameData, "data", "d", "", "payload bytes in hex")
}

func runFrame(cmd *cobra.Command, args []string) error {
	p, err := currentProfile()
	if err != nil {
		return err
	}
	cfg := p.Bridge
	if cfg.Framing != bridge.FramingMagic {
		return fmt.Errorf("profile %s has %s framing and sends no header", p.Name, cfg.Framing)
	}

	var payload []bool
	if frameData != "" {
		data, err := hex.DecodeString(strings.TrimPrefix(frameData, "0x"))
		if err != nil {
			return fmt.Errorf("invalid --data: %w", err)
		}
		payload = bridge.BytesToBits(data)
		frameLength = len(payload)
	}
	if frameLength < 0 || frameLength > bridge.MaxTransferBits {
		return fmt.Errorf("--length %d out of range [0, %d]", frameLength, bridge.MaxTransferBits)
	}

	header := bridge.EncodeHeader(cfg, uint16(frameLength))
	fmt.Printf("Profile:  %s\n", p.Name)
	fmt.Printf("Header:   %#x (%d bits, %s first)\n",
		bridge.HeaderWord(cfg, uint16(frameLength)), len(header), cfg.Order)
	fmt.Printf("TDI:      %s\n", bitString(header))
	if payload != nil {
		frame, err := bridge.EncodeFrame(cfg, payload)
		if err != nil {
			return err
		}
		fmt.Printf("Frame:    %d bits\n", len(frame))
	}
	if frameLength == 0 {
		fmt.Println("Note:     zero length opens no window")
	}
	return nil
}

func bitString(bits []bool) string {
	var sb strings.Builder
	for i, b := range bits {
		if i > 0 && i%8 == 0 {
			sb.WriteByte('_')
		}
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
