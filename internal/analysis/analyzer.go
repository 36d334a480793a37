// Package analysis explains command output with a language model and
// proposes corrections for mistyped commands.
package analysis

import (
	"context"

	"github.com/ValGrace/shelly/pkg/history"
)

// Request describes one piece of output to explain
type Request struct {
	Command  string
	Output   string
	ExitCode *int // nil for text pasted by the user
	TimedOut bool
	History  []history.Entry
}

// Succeeded reports whether the request describes a zero exit
func (r Request) Succeeded() bool {
	return !r.TimedOut && r.ExitCode != nil && *r.ExitCode == 0
}

// Analyzer explains output and suggests corrections
type Analyzer interface {
	// Analyze returns a human-readable explanation, typically Markdown
	Analyze(ctx context.Context, req Request) (string, error)

	// SuggestCorrections picks likely intended commands from available
	SuggestCorrections(ctx context.Context, failed string, available []string) ([]string, error)
}

// Options tunes prompt construction
type Options struct {
	Model           string
	MaxOutputLength int
	HistoryEntries  int
	ContextLines    int
	MaxSuggestions  int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Model:           "gemini-2.5-flash",
		MaxOutputLength: 8000,
		HistoryEntries:  20,
		ContextLines:    5,
		MaxSuggestions:  5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Model == "" {
		o.Model = d.Model
	}
	if o.MaxOutputLength <= 0 {
		o.MaxOutputLength = d.MaxOutputLength
	}
	if o.HistoryEntries <= 0 {
		o.HistoryEntries = d.HistoryEntries
	}
	if o.ContextLines <= 0 {
		o.ContextLines = d.ContextLines
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = d.MaxSuggestions
	}
	return o
}
