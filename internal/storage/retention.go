package storage

import (
	"fmt"
	"time"

	"github.com/ValGrace/shelly/pkg/history"
)

// RetentionPolicy defines which log entries survive a prune
type RetentionPolicy struct {
	MaxAge     time.Duration // Entries older than this are dropped; zero keeps all
	MaxEntries int           // Only the newest MaxEntries are kept; zero keeps all
}

// DefaultRetentionPolicy returns a sensible default retention policy
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MaxAge:     90 * 24 * time.Hour,
		MaxEntries: 5000,
	}
}

// Validate checks the policy values
func (p RetentionPolicy) Validate() error {
	if p.MaxAge < 0 {
		return fmt.Errorf("max age cannot be negative")
	}
	if p.MaxEntries < 0 {
		return fmt.Errorf("max entries cannot be negative")
	}
	return nil
}

// Keep returns the entries the policy retains, oldest first
func (p RetentionPolicy) Keep(entries []history.Entry, now time.Time) []history.Entry {
	kept := make([]history.Entry, 0, len(entries))
	for _, e := range entries {
		if p.MaxAge > 0 && now.Sub(e.Timestamp) > p.MaxAge {
			continue
		}
		kept = append(kept, e)
	}
	if p.MaxEntries > 0 && len(kept) > p.MaxEntries {
		kept = kept[len(kept)-p.MaxEntries:]
	}
	return kept
}

// ApplyRetention prunes the store if it supports pruning
func ApplyRetention(store history.HistoryStore, policy RetentionPolicy) (int, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}
	prunable, ok := store.(PrunableStore)
	if !ok {
		return 0, fmt.Errorf("store does not support pruning")
	}
	return prunable.Prune(policy)
}
