package analysis

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ValGrace/shelly/pkg/history"
)

const truncationMarker = "\n... (truncated) ...\n"

// Truncate keeps the head and tail of output when it exceeds max bytes.
// Cuts are moved back to rune boundaries.
func Truncate(output string, max int) string {
	if max <= 0 || len(output) <= max {
		return output
	}

	half := max / 2
	head := half
	for head > 0 && !utf8.RuneStart(output[head]) {
		head--
	}
	tail := len(output) - half
	for tail < len(output) && !utf8.RuneStart(output[tail]) {
		tail++
	}
	return output[:head] + truncationMarker + output[tail:]
}

// FormatHistory renders the last n entries one per line
func FormatHistory(entries []history.Entry, n int) string {
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("[%s] %s (exit code: %s)",
			e.Timestamp.UTC().Format(time.RFC3339), e.Command, e.ExitCodeString()))
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt assembles the analysis prompt. snippet is the source excerpt
// located from a stack trace in the output, if any.
func BuildPrompt(req Request, opts Options, snippet string) string {
	opts = opts.withDefaults()
	output := Truncate(req.Output, opts.MaxOutputLength)

	var b strings.Builder
	switch {
	case req.Succeeded():
		b.WriteString("The following command executed successfully with exit code 0. ")
		b.WriteString("Please analyze the output and provide any relevant insights or suggestions for improvement.\n")
	case req.TimedOut:
		b.WriteString("The following command was stopped because it exceeded its time limit. ")
		b.WriteString("Explain why it may have hung and how to fix it.\n")
	case req.ExitCode == nil:
		b.WriteString("The user pasted the following error output.\n")
	default:
		fmt.Fprintf(&b, "The following error occurred with exit code %d:\n", *req.ExitCode)
	}

	if req.Command != "" {
		fmt.Fprintf(&b, "Command: %s\n", req.Command)
	}

	b.WriteString("Output:\n```\n")
	b.WriteString(output)
	if !strings.HasSuffix(output, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	if snippet != "" && !req.Succeeded() {
		b.WriteString("The error appears to be in the following code snippet:\n")
		b.WriteString(snippet)
		b.WriteString("\n")
	}

	if hist := FormatHistory(req.History, opts.HistoryEntries); hist != "" {
		b.WriteString("Here is the command history:\n```\n")
		b.WriteString(hist)
		b.WriteString("\n```\n")
	}

	if !req.Succeeded() {
		b.WriteString("Please analyze the error and provide a solution. If the error is in the code, suggest a fix.\n")
	}
	return b.String()
}

// BuildSuggestionPrompt asks for likely intended commands
func BuildSuggestionPrompt(failed string, available []string, max int) string {
	return fmt.Sprintf(`The command "%s" was not found.
From the following list of available commands, please suggest up to %d most likely commands the user intended to run.
Provide the suggestions as a comma-separated list (e.g., git,node,npm). If you can't find good matches, return an empty string.
Available commands:
%s
`, failed, max, strings.Join(available, ", "))
}

// ParseSuggestions splits a comma-separated model reply. When available is
// non-empty only names present in it are kept.
func ParseSuggestions(reply string, available []string, max int) []string {
	known := make(map[string]bool, len(available))
	for _, name := range available {
		known[name] = true
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, field := range strings.FieldsFunc(reply, func(r rune) bool { return r == ',' || r == '\n' }) {
		name := strings.Trim(strings.TrimSpace(field), "`\"'-* ")
		if name == "" || seen[name] {
			continue
		}
		if len(known) > 0 && !known[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// CommandNotFound reports whether text looks like a shell's unknown-command
// message
func CommandNotFound(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "command not found") ||
		strings.Contains(lower, "is not recognized as") ||
		strings.Contains(lower, "unknown command")
}

// FailedProgram returns the program name of a command line
func FailedProgram(command string) string {
	fields := strings.Fields(command)
	for _, f := range fields {
		// Skip leading VAR=value assignments
		if strings.Contains(f, "=") && !strings.HasPrefix(f, "=") {
			continue
		}
		return f
	}
	return ""
}
