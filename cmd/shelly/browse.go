package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [query]",
	Short: "Browse recorded commands interactively",
	Long: `Launch an interactive terminal UI over the commands shelly has recorded.
Search, filter by date or status, and press enter to run the selected
command again. Selecting explained text analyzes it again.`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	return globalApp.Browse(cmd.Context(), strings.Join(args, " "), runOptions())
}
