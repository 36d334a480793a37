package browser

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ValGrace/shelly/pkg/history"
)

// entriesMsg carries the store contents, newest first
type entriesMsg struct {
	entries []history.Entry
}

// errorMsg contains error information
type errorMsg struct {
	error error
}

// loadEntries reads the store asynchronously
func loadEntries(store history.HistoryStore) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return errorMsg{error: errNoStore}
		}
		all := store.ReadAll()

		// Stores return oldest first; the browser lists recent commands on top
		entries := make([]history.Entry, len(all))
		for i, e := range all {
			entries[len(all)-1-i] = e
		}
		return entriesMsg{entries: entries}
	}
}
