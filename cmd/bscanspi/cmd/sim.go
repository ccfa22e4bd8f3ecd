package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/bscanspi/pkg/host"
	"github.com/OpenTraceLab/bscanspi/pkg/jtag"
	"github.com/OpenTraceLab/bscanspi/pkg/spi"
)

var (
	simData  string
	simReply string
	simLoop  bool
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a transfer through a simulated bridge",
	Long: `Build the bridge described by a profile, host it in a simulated device and
drive one SPI transfer through it from the JTAG side, the way a flash loader
would. The SPI side is a slave answering with --reply, or a loopback.

Examples:
  bscanspi sim --profile xc3sprog --data 9f000000 --reply ffef4018
  bscanspi sim --profile fpgaprog --data a5a5 --loopback`,
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	rootCmd.AddCommand(simCmd)
	addProfileFlags(simCmd)
	simCmd.Flags().StringVarP(&simData, "data", "d", "", "bytes to send, hex")
	simCmd.Flags().StringVarP(&simReply, "reply", "r", "", "bytes the slave answers with, hex")
	simCmd.Flags().BoolVar(&simLoop, "loopback", false, "attach a loopback instead of a slave")
	simCmd.MarkFlagRequired("data")
}

func runSim(cmd *cobra.Command, args []string) error {
	p, err := currentProfile()
	if err != nil {
		return err
	}
	data, err := parseHex("data", simData)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("--data is required")
	}
	reply, err := parseHex("reply", simReply)
	if err != nil {
		return err
	}

	slave := spi.NewSlave(reply)
	rec := &spi.Recorder{Sink: slave}
	if simLoop {
		rec.Sink = &spi.Loopback{}
	}

	sim, _, err := jtag.NewBridgeSim(p.Bridge, p.Target, rec)
	if err != nil {
		return err
	}
	prog, err := host.New(sim, p.Bridge, p.Target)
	if err != nil {
		return err
	}
	id, err := prog.Connect()
	if err != nil {
		return err
	}
	in, err := prog.Transfer(data)
	if err != nil {
		return err
	}

	fmt.Printf("Profile:  %s\n", p)
	fmt.Printf("Device:   %s\n", id)
	fmt.Printf("Sent:     %X\n", data)
	fmt.Printf("Received: %X\n", in)
	if !simLoop {
		for _, tx := range slave.Transactions() {
			fmt.Printf("SPI:      %s\n", tx)
		}
	}
	fmt.Printf("Clocks:   %d selected SCLK edges, %d TCK cycles\n",
		rec.SelectedEdges(), sim.Target().Cycles())
	return nil
}

func parseHex(name, s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return b, nil
}
