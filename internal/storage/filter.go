package storage

import (
	"strings"
	"time"

	"github.com/ValGrace/shelly/pkg/history"
)

// Filter defines criteria for listing log entries
type Filter struct {
	Pattern    string
	Since      time.Time
	FailedOnly bool
	Limit      int
}

// Matches reports whether a single entry passes the filter, ignoring Limit
func (f Filter) Matches(e history.Entry) bool {
	if f.Pattern != "" && !strings.Contains(strings.ToLower(e.Command), strings.ToLower(f.Pattern)) {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if f.FailedOnly && !e.Failed() {
		return false
	}
	return true
}

// Apply filters entries and keeps the most recent Limit matches, preserving
// chronological order
func Apply(entries []history.Entry, f Filter) []history.Entry {
	out := make([]history.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}
