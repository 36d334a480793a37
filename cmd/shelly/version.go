package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ValGrace/shelly/internal/version"
)

var versionFlags struct {
	short bool
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for shelly.`,
	Args:  cobra.NoArgs,
	Run:   runVersion,
}

func init() {
	versionCmd.Flags().BoolVarP(&versionFlags.short, "short", "s", false, "Show short version only")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	if versionFlags.short {
		fmt.Fprintln(cmd.OutOrStdout(), version.Short())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
	}
}
