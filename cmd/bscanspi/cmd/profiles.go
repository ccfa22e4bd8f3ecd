package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/bscanspi/pkg/profile"
)

var profilesFile string

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List bridge profiles",
	Long: `List the built-in bridge presets, or every profile in a profile file.

Examples:
  bscanspi profiles
  bscanspi profiles --file boards.profile`,
	Args: cobra.NoArgs,
	RunE: runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.Flags().StringVarP(&profilesFile, "file", "f", "", "profile file to list")
}

func runProfiles(cmd *cobra.Command, args []string) error {
	profiles := profile.Presets()
	if profilesFile != "" {
		var err error
		if profiles, err = profile.Load(profilesFile); err != nil {
			return err
		}
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles found.")
		return nil
	}

	fmt.Printf("%-12s %-6s %-12s %-4s %-5s %-9s %-14s %s\n",
		"NAME", "FRAME", "MAGIC", "ACC", "ORDER", "DECREMENT", "READBACK", "USER")
	for _, p := range profiles {
		c := p.Bridge
		fmt.Printf("%-12s %-6s %-12s %-4d %-5s %-9s %-14s %#x/%d\n",
			p.Name, c.Framing, fmt.Sprintf("%#x", c.Magic), c.AccumulatorWidth, c.Order, c.Decrement,
			fmt.Sprintf("%s/%d", c.Readback, c.ReadbackParameter), p.Target.User, p.Target.IRLength)
	}
	return nil
}
