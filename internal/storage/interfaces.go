package storage

import (
	"fmt"
	"strings"

	"github.com/ValGrace/shelly/pkg/history"
)

// Supported storage backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// PrunableStore is implemented by stores that can drop old entries
type PrunableStore interface {
	history.HistoryStore

	// Prune removes entries outside the retention policy and reports how many
	// were removed
	Prune(policy RetentionPolicy) (int, error)
}

// New creates a history store for the named backend
func New(backend string, path string) (history.HistoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendJSON, "":
		return NewJSONStore(path), nil
	case BackendSQLite:
		store := NewSQLiteStore(path)
		if err := store.Initialize(); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Search returns entries whose command contains pattern, case-insensitively.
// Stores that can search natively are asked to do so.
func Search(store history.HistoryStore, pattern string) ([]history.Entry, error) {
	if searchable, ok := store.(history.SearchableStore); ok {
		return searchable.Search(pattern)
	}
	return Apply(store.ReadAll(), Filter{Pattern: pattern}), nil
}
