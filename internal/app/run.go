package app

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ValGrace/shelly/internal/analysis"
	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/executor"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/internal/rules"
	"github.com/ValGrace/shelly/pkg/shell"
)

// RunOptions controls one run of a command
type RunOptions struct {
	// Timeout bounds the command; zero uses the configured timeout
	Timeout time.Duration

	// Analyze sends the outcome to the analyzer when no rule matched
	Analyze bool
}

// CommandSource describes where the command for a zero-argument run came from
type CommandSource string

const (
	SourceShellFunction CommandSource = "shell function"
	SourceHistoryFile   CommandSource = "history file"
)

// LastCommand resolves the command the user ran before invoking shelly.
// The value exported by the shell function is preferred because history
// files are often only written when the shell exits.
func (a *Application) LastCommand() (string, CommandSource, error) {
	if live := strings.TrimSpace(a.env.Getenv(shell.LastCommandVar)); live != "" {
		filter := shell.SelfFilter{Names: a.config.ToolNames, Markers: a.config.SelfMarkers}
		if !filter.Matches(live) {
			return live, SourceShellFunction, nil
		}
		logging.Debug("ignoring %s, it is a shelly invocation", shell.LastCommandVar)
	}

	det, ok := a.Detect()
	if !ok {
		return "", "", errors.NewDetectionError("could not detect your shell", nil).
			WithContext("hint", "set "+a.config.OverrideEnv+" to bash, zsh, fish, tcsh, csh, pwsh or powershell")
	}

	command, found := a.resolver.LastCommand(det.Descriptor, "")
	if !found {
		path, _ := det.HistoryPath(a.env)
		return "", "", errors.NewHistoryError("no previous command found in "+det.Name()+" history", nil).
			WithContext("path", path)
	}
	return command, SourceHistoryFile, nil
}

// RunLast re-runs the previous shell command and explains the outcome.
// Commands taken from history pass the dangerous-command guard first.
// Finding no command or refusing it is reported but is not an error.
func (a *Application) RunLast(ctx context.Context, opts RunOptions) error {
	command, source, err := a.LastCommand()
	if err != nil {
		if errors.IsType(err, errors.DetectionError) || errors.IsType(err, errors.HistoryError) {
			a.printer.Warn("%v", err)
			return nil
		}
		return err
	}
	logging.Info("re-running last command from %s", source)

	if !a.allowed(command) {
		return nil
	}
	_, err = a.execute(ctx, command, opts, false)
	return err
}

// Run executes an explicitly supplied command, records it and explains the
// outcome
func (a *Application) Run(ctx context.Context, command string, opts RunOptions) (*executor.ExecutionResult, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.NewValidationError("no command given", nil)
	}
	return a.execute(ctx, command, opts, true)
}

// allowed reports whether a command taken from history may be re-run. A
// refusal is an expected outcome, reported as a warning.
func (a *Application) allowed(command string) bool {
	if !a.config.BlockDangerous {
		return true
	}
	if err := a.validator.Validate(command); err != nil {
		logging.Info("refused to re-run %q: %v", command, err)
		a.printer.Warn("refusing to re-run a dangerous command from history: %v", err)
		a.printer.Notice("Run it explicitly or set block_dangerous to false.")
		return false
	}
	return true
}

func (a *Application) execute(ctx context.Context, command string, opts RunOptions, record bool) (*executor.ExecutionResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = a.config.Timeout()
	}

	log := logging.Default().WithField("command", command)

	a.printer.Running(command)
	res, err := a.commandRunner().Run(ctx, command, timeout)
	if err != nil {
		log.Error("failed to run: %v", err)
		return nil, err
	}
	log.Info("exited %d in %s (timed out: %t)", res.ExitCode, res.Duration, res.TimedOut)

	if record {
		if err := a.store.Append(command, &res.ExitCode); err != nil {
			log.Error("failed to record: %v", err)
			a.printer.Warn("could not record command in history: %v", err)
		}
	}

	a.printer.Result(res)
	a.followUp(ctx, command, res, opts)
	return res, nil
}

// followUp prints a rule suggestion if one matches, otherwise the analysis
// and, for unknown programs, likely intended commands
func (a *Application) followUp(ctx context.Context, command string, res *executor.ExecutionResult, opts RunOptions) {
	in := rules.Input{
		Command:  command,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode,
		TimedOut: res.TimedOut,
	}
	if suggestion, ok := a.rules.Evaluate(in); ok {
		a.printer.Suggestion(suggestion)
		return
	}

	notFound := !res.Succeeded() && analysis.CommandNotFound(res.Output())

	if !opts.Analyze {
		if notFound {
			a.printCorrections(ctx, command)
		}
		return
	}

	if a.analyzer == nil {
		a.printer.Notice("Analysis unavailable: set %s to enable it.", a.config.Analysis.APIKeyEnv)
		if notFound {
			a.printCorrections(ctx, command)
		}
		return
	}

	exitCode := res.ExitCode
	req := analysis.Request{
		Command:  command,
		Output:   res.Output(),
		ExitCode: &exitCode,
		TimedOut: res.TimedOut,
		History:  a.store.ReadAll(),
	}

	var (
		explanation string
		corrections []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := a.analyzer.Analyze(gctx, req)
		if err != nil {
			logging.Error("analysis failed: %v", err)
			a.printer.Warn("analysis failed: %v", err)
			return nil
		}
		explanation = text
		return nil
	})
	if notFound {
		g.Go(func() error {
			corrections = a.corrections(gctx, command)
			return nil
		})
	}
	_ = g.Wait()

	if explanation != "" {
		a.printer.Analysis(explanation)
	}

	switch {
	case notFound:
		a.printer.Corrections(analysis.FailedProgram(command), corrections)
	case analysis.CommandNotFound(explanation):
		a.printCorrections(ctx, command)
	}
}

func (a *Application) printCorrections(ctx context.Context, command string) {
	a.printer.Corrections(analysis.FailedProgram(command), a.corrections(ctx, command))
}

// corrections asks the analyzer which available command was meant, falling
// back to edit distance when it is unavailable or fails
func (a *Application) corrections(ctx context.Context, command string) []string {
	failed := analysis.FailedProgram(command)
	if failed == "" {
		return nil
	}

	available, err := a.commands(ctx)
	if err != nil {
		logging.Debug("failed to list available commands: %v", err)
		return nil
	}

	max := a.analysisOptions().MaxSuggestions
	if a.analyzer != nil {
		names, err := a.analyzer.SuggestCorrections(ctx, failed, available)
		if err == nil && len(names) > 0 {
			return names
		}
		if err != nil {
			logging.Debug("suggestion request failed, using edit distance: %v", err)
		}
	}
	return analysis.ClosestCommands(failed, available, max)
}

// Explain analyzes pasted error text. The text is recorded with no exit code.
func (a *Application) Explain(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.NewValidationError("nothing to explain", nil).
			WithContext("hint", "pass the error text as arguments or on stdin")
	}

	if err := a.store.Append(text, nil); err != nil {
		logging.Error("failed to record explained text: %v", err)
		a.printer.Warn("could not record text in history: %v", err)
	}

	if a.analyzer == nil {
		return errors.NewAnalysisError("analysis is not configured", nil).
			WithContext("hint", "set "+a.config.Analysis.APIKeyEnv)
	}

	explanation, err := a.analyzer.Analyze(ctx, analysis.Request{
		Output:  text,
		History: a.store.ReadAll(),
	})
	if err != nil {
		return err
	}
	a.printer.Analysis(explanation)
	return nil
}
