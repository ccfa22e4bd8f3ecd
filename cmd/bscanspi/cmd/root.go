package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/OpenTraceLab/bscanspi/pkg/bridge"
	"github.com/OpenTraceLab/bscanspi/pkg/host"
	"github.com/OpenTraceLab/bscanspi/pkg/profile"
)

var (
	// Global flags
	verbose     bool
	profileName string
	profileFile string
)

var rootCmd = &cobra.Command{
	Use:   "bscanspi",
	Short: "JTAG boundary-scan to SPI bridge model",
	Long: `Model of a JTAG-to-SPI bridge as loaded into an FPGA user register by
flash loaders such as xc3sprog and fpgaprog. Frames transfers, runs them through
a simulated device and decodes captures of the SPI side.

Examples:
  bscanspi profiles                                   # List built-in profiles
  bscanspi frame --profile fpgaprog --length 32       # Print a frame header
  bscanspi sim --profile xc3sprog --data 9f000000 --reply ffef4018
  bscanspi analyze --clk clk.bin --cs cs.bin --mosi mosi.bin --miso miso.bin`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// addProfileFlags registers the flags that pick a bridge profile.
func addProfileFlags(c *cobra.Command) {
	c.Flags().StringVarP(&profileName, "profile", "p", bridge.DefaultConfig().Name,
		"bridge profile name")
	c.Flags().StringVarP(&profileFile, "file", "f", "",
		"profile file (default: built-in presets)")
}

func currentProfile() (*profile.Profile, error) {
	return profile.Resolve(profileName, profileFile)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	bridge.SetLogger(logger)
	host.SetLogger(logger)
	return nil
}
