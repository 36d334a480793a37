package browser

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ValGrace/shelly/pkg/history"
)

// Browser runs the interactive history browser over a store
type Browser struct {
	store   history.HistoryStore
	options []tea.ProgramOption
}

// NewBrowser creates a new history browser
func NewBrowser(store history.HistoryStore, options ...tea.ProgramOption) *Browser {
	if len(options) == 0 {
		options = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &Browser{store: store, options: options}
}

// SelectCommand shows the history and returns the entry chosen with enter,
// or nil if the user quit without choosing
func (b *Browser) SelectCommand(query string) (*history.Entry, error) {
	model := NewUIModel(b.store)
	if query != "" {
		model.searchInput.SetValue(query)
	}

	program := tea.NewProgram(model, b.options...)
	finalModel, err := program.Run()
	if err != nil {
		return nil, err
	}

	if uiModel, ok := finalModel.(UIModel); ok {
		return uiModel.GetSelectedEntry(), nil
	}
	return nil, nil
}
