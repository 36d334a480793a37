package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ValGrace/shelly/internal/executor"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/internal/rules"
	"github.com/ValGrace/shelly/pkg/history"
)

const defaultWrap = 100

// Printer writes user-facing output. Styled output is used on terminals;
// plain output keeps the text stable for pipes and tests.
type Printer struct {
	out      io.Writer
	errOut   io.Writer
	plain    bool
	renderer *glamour.TermRenderer
}

// NewPrinter creates a printer. Markdown rendering falls back to raw text
// when the renderer cannot be built.
func NewPrinter(out, errOut io.Writer, plain bool) *Printer {
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStylePath("notty")
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(defaultWrap))
	if err != nil {
		logging.Debug("markdown renderer unavailable: %v", err)
		renderer = nil
	}

	return &Printer{out: out, errOut: errOut, plain: plain, renderer: renderer}
}

// Out returns the standard output writer
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

// Running announces the command about to run
func (p *Printer) Running(command string) {
	fmt.Fprintf(p.out, "%s %s\n", p.style(dimStyle, "Running:"), p.style(commandStyle, command))
}

// Result prints the classified output of a run
func (p *Printer) Result(res *executor.ExecutionResult) {
	switch {
	case res.TimedOut:
		fmt.Fprintf(p.out, "%s\n", p.style(warningStyle, fmt.Sprintf("Command timed out after %s", res.Duration.Round(time.Millisecond))))
	case res.ExitCode == 0:
		fmt.Fprintf(p.out, "%s\n", p.style(successStyle, "Command succeeded"))
	default:
		fmt.Fprintf(p.out, "%s\n", p.style(errorStyle, fmt.Sprintf("Command failed with exit code %d", res.ExitCode)))
	}

	if output := strings.TrimRight(res.Output(), "\n"); output != "" {
		fmt.Fprintln(p.out, output)
	}
	if res.Truncated {
		fmt.Fprintln(p.out, p.style(dimStyle, "(output truncated)"))
	}
}

// Suggestion prints a rule's proposed command
func (p *Printer) Suggestion(s rules.Suggestion) {
	fmt.Fprintf(p.out, "%s %s %s\n",
		p.style(suggestionStyle, "Suggestion:"),
		p.style(commandStyle, s.Command),
		p.style(dimStyle, "("+s.Rule+")"))
}

// Analysis renders a Markdown explanation
func (p *Printer) Analysis(markdown string) {
	fmt.Fprintln(p.out, p.style(headerStyle, "Analysis"))
	fmt.Fprint(p.out, p.RenderMarkdown(markdown))
}

// RenderMarkdown renders markdown for the terminal, or returns it unchanged
// if rendering fails
func (p *Printer) RenderMarkdown(markdown string) string {
	if p.renderer == nil {
		return ensureNewline(markdown)
	}
	rendered, err := p.renderer.Render(markdown)
	if err != nil {
		logging.Debug("failed to render markdown: %v", err)
		return ensureNewline(markdown)
	}
	return ensureNewline(rendered)
}

// Corrections lists likely intended commands for an unknown program
func (p *Printer) Corrections(failed string, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(p.out, "No similar commands found for %q\n", failed)
		return
	}

	fmt.Fprintf(p.out, "%s\n", p.style(suggestionStyle, fmt.Sprintf("Did you mean one of these instead of %q?", failed)))
	for _, name := range names {
		fmt.Fprintf(p.out, "  %s\n", p.style(commandStyle, name))
	}
}

// Notice prints an informational line
func (p *Printer) Notice(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.style(dimStyle, fmt.Sprintf(format, args...)))
}

// Warn prints a warning to the error stream
func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintln(p.errOut, p.style(warningStyle, "Warning: "+fmt.Sprintf(format, args...)))
}

// Box prints text inside a rounded border
func (p *Printer) Box(title, body string) {
	content := body
	if title != "" {
		content = p.style(headerStyle, title) + "\n" + body
	}
	if p.plain {
		fmt.Fprintln(p.out, content)
		return
	}
	fmt.Fprintln(p.out, boxStyle.Render(content))
}

// Entries prints history entries as aligned rows, oldest first
func (p *Printer) Entries(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(p.out, "No history entries found.")
		return
	}

	fmt.Fprintln(p.out, p.style(dimStyle, fmt.Sprintf("%-20s  %-5s  %s", "TIME", "EXIT", "COMMAND")))
	for _, e := range entries {
		code := e.ExitCodeString()
		line := fmt.Sprintf("%-20s  %-5s  %s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), code, e.Command)
		switch {
		case e.Failed():
			fmt.Fprintln(p.out, p.style(errorStyle, line))
		case e.ExitCode == nil:
			fmt.Fprintln(p.out, p.style(dimStyle, line))
		default:
			fmt.Fprintln(p.out, line)
		}
	}
	fmt.Fprintln(p.out, p.style(dimStyle, fmt.Sprintf("%d entries", len(entries))))
}

// EntriesJSON prints entries as an indented JSON array
func (p *Printer) EntriesJSON(entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
