package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ValGrace/shelly/internal/config"
)

var detectFlags struct {
	recent int
	json   bool
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the detected shell and its last command",
	Long: `Detect the shell shelly was started from and show how it was found,
where its history lives and which command a bare "shelly" would re-run.`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().IntVarP(&detectFlags.recent, "recent", "n", 0, "Also list this many recent commands")
	detectCmd.Flags().BoolVar(&detectFlags.json, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	report := globalApp.Report(detectFlags.recent)
	out := cmd.OutOrStdout()

	if detectFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if !report.Found {
		fmt.Fprintln(out, "No shell detected.")
		fmt.Fprintf(out, "Set %s to bash, zsh, fish, tcsh, csh, pwsh or powershell.\n", config.Global().OverrideEnv)
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Shell:        %s\n", report.Shell)
	fmt.Fprintf(&body, "Detected via: %s", report.Source)
	if report.HistoryPath != "" {
		fmt.Fprintf(&body, "\nHistory file: %s", report.HistoryPath)
	}
	if report.LastCommand != "" {
		fmt.Fprintf(&body, "\nLast command: %s", report.LastCommand)
	} else {
		body.WriteString("\nLast command: (none)")
	}
	globalApp.Printer().Box("Shell detection", body.String())

	if len(report.Recent) > 0 {
		fmt.Fprintln(out, "\nRecent commands:")
		for i, command := range report.Recent {
			fmt.Fprintf(out, "%4d  %s\n", i+1, command)
		}
	}
	return nil
}
