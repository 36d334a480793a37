package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// Pasted error output larger than this is cut before analysis anyway
const maxExplainInput = 1 << 20

var explainCmd = &cobra.Command{
	Use:   "explain [text...]",
	Short: "Explain pasted error output",
	Long: `Explain error output that did not come from a command shelly ran. The
text is taken from the arguments, or read from stdin when there are none:

  some-build 2>&1 | shelly explain`,
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" && !isTerminal(cmd.InOrStdin()) {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxExplainInput))
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	return globalApp.Explain(cmd.Context(), text)
}
