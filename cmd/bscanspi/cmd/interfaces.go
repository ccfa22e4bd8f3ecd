package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/bscanspi/pkg/jtag"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available JTAG interfaces",
	Long: `Scan the host for USB JTAG cables commonly used with boundary-scan SPI
loaders (FTDI MPSSE, Xilinx Platform Cable, CMSIS-DAP) and print a summary.
The bridge simulator is always listed.`,
	Args: cobra.NoArgs,
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := jtag.DiscoverInterfaces(ctx)
	if err != nil {
		return fmt.Errorf("discover interfaces: %w", err)
	}

	fmt.Println("Detected JTAG interfaces:")
	for _, iface := range infos {
		if iface.Kind == jtag.InterfaceKindSim {
			fmt.Printf("  - %s [%s]\n", iface.Label(), iface.Kind)
			continue
		}
		fmt.Printf("  - %s [%s] (VID:PID %04X:%04X, bus %d addr %d)\n",
			iface.Label(), iface.Kind, iface.VendorID, iface.ProductID, iface.Bus, iface.Address)
	}
	return nil
}
