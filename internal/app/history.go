package app

import (
	"context"

	"github.com/ValGrace/shelly/internal/browser"
	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/internal/storage"
	"github.com/ValGrace/shelly/pkg/history"
	"github.com/ValGrace/shelly/pkg/shell"
)

// DetectionReport summarizes what shelly knows about the calling shell
type DetectionReport struct {
	Found       bool     `json:"found"`
	Shell       string   `json:"shell,omitempty"`
	Source      string   `json:"source"`
	HistoryPath string   `json:"historyPath,omitempty"`
	LastCommand string   `json:"lastCommand,omitempty"`
	Recent      []string `json:"recent,omitempty"`
}

// Report detects the shell and reads its recent history
func (a *Application) Report(recent int) DetectionReport {
	det, ok := a.Detect()
	if !ok {
		return DetectionReport{Source: shell.SourceNone.String()}
	}

	report := DetectionReport{
		Found:  true,
		Shell:  det.Name(),
		Source: det.Source.String(),
	}
	if path, err := det.HistoryPath(a.env); err == nil {
		report.HistoryPath = path
	} else {
		logging.Debug("failed to resolve history path: %v", err)
	}
	if command, found := a.resolver.LastCommand(det.Descriptor, ""); found {
		report.LastCommand = command
	}
	if recent > 0 {
		report.Recent = a.resolver.Recent(det.Descriptor, recent)
	}
	return report
}

// History returns stored entries matching f, oldest first
func (a *Application) History(f storage.Filter) ([]history.Entry, error) {
	if f.Pattern == "" {
		return storage.Apply(a.store.ReadAll(), f), nil
	}

	found, err := storage.Search(a.store, f.Pattern)
	if err != nil {
		return nil, errors.NewStorageError("failed to search history", err)
	}
	return storage.Apply(found, f), nil
}

// Prune drops entries outside the retention policy
func (a *Application) Prune(policy storage.RetentionPolicy) (int, error) {
	removed, err := storage.ApplyRetention(a.store, policy)
	if err != nil {
		return 0, errors.NewStorageError("failed to prune history", err)
	}
	logging.Info("pruned %d history entries", removed)
	return removed, nil
}

// Browse lets the user pick a stored command and runs it. Commands chosen
// this way are recorded again and pass the dangerous-command guard.
func (a *Application) Browse(ctx context.Context, query string, opts RunOptions) error {
	selector := a.selector
	if selector == nil {
		selector = browser.NewBrowser(a.store)
	}

	entry, err := selector.SelectCommand(query)
	if err != nil {
		return errors.NewHistoryError("history browser failed", err)
	}
	if entry == nil {
		return nil
	}

	// Explained text is not a command; analyze it again instead
	if entry.ExitCode == nil {
		return a.Explain(ctx, entry.Command)
	}

	if !a.allowed(entry.Command) {
		return nil
	}
	_, err = a.execute(ctx, entry.Command, opts, true)
	return err
}
