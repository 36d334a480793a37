// Package rules turns well-known failure shapes into a corrected command
// without consulting the analysis service.
package rules

import (
	"strings"

	"github.com/ValGrace/shelly/internal/logging"
)

// Input is everything a rule may inspect about one finished command
type Input struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Output returns both streams joined for pattern matching
func (in Input) Output() string {
	switch {
	case in.Stdout == "":
		return in.Stderr
	case in.Stderr == "":
		return in.Stdout
	default:
		return in.Stdout + "\n" + in.Stderr
	}
}

// Rule recognises a failure and proposes a replacement command
type Rule interface {
	Name() string
	Match(in Input) bool
	NewCommand(in Input) string
}

// Suggestion is the replacement proposed by the first matching rule
type Suggestion struct {
	Rule    string
	Command string
}

// Engine evaluates rules in order; the first match wins
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over the given rules
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the rules in evaluation order
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate returns the suggestion of the first rule that matches
func (e *Engine) Evaluate(in Input) (Suggestion, bool) {
	for _, rule := range e.rules {
		if !rule.Match(in) {
			continue
		}
		next := rule.NewCommand(in)
		if strings.TrimSpace(next) == "" {
			logging.Debug("rule %s matched but produced no command", rule.Name())
			continue
		}
		logging.Debug("rule %s matched %q", rule.Name(), in.Command)
		return Suggestion{Rule: rule.Name(), Command: next}, true
	}
	return Suggestion{}, false
}

// Builtin returns the rules that ship with shelly
func Builtin() []Rule {
	return []Rule{
		rerunInterrupted{},
		sudoPermissionDenied{},
	}
}

// rerunInterrupted offers the same command again after Ctrl+C (exit 130)
type rerunInterrupted struct{}

func (rerunInterrupted) Name() string { return "rerun_interrupted" }

func (rerunInterrupted) Match(in Input) bool {
	return !in.TimedOut && in.ExitCode == 130
}

func (rerunInterrupted) NewCommand(in Input) string {
	return in.Command
}

// sudoPermissionDenied retries a command that failed on permissions with sudo
type sudoPermissionDenied struct{}

func (sudoPermissionDenied) Name() string { return "sudo_permission_denied" }

func (sudoPermissionDenied) Match(in Input) bool {
	if in.ExitCode == 0 || in.TimedOut {
		return false
	}
	if strings.HasPrefix(strings.TrimSpace(in.Command), "sudo ") {
		return false
	}
	out := strings.ToLower(in.Output())
	return strings.Contains(out, "permission denied") ||
		strings.Contains(out, "operation not permitted") ||
		strings.Contains(out, "eacces")
}

func (sudoPermissionDenied) NewCommand(in Input) string {
	return "sudo " + strings.TrimSpace(in.Command)
}
