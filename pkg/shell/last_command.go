package shell

import (
	"os"
	"strings"

	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/pkg/history"
)

// SelfFilter recognizes history entries that are runs of shelly itself
type SelfFilter struct {
	// Names are the invocation names of the tool
	Names []string

	// Markers are substrings that only appear in the tool's own invocations
	Markers []string
}

// DefaultSelfFilter returns the filter for the stock "shelly" binary
func DefaultSelfFilter() SelfFilter {
	return SelfFilter{
		Names:   []string{"shelly"},
		Markers: []string{"SHELLY_DEBUG"},
	}
}

// Matches reports whether text is an invocation of the tool
func (f SelfFilter) Matches(text string) bool {
	text = strings.TrimSpace(text)
	for _, name := range f.Names {
		if name == "" {
			continue
		}
		if text == name || strings.HasPrefix(text, name+" ") {
			return true
		}
	}
	for _, marker := range f.Markers {
		if marker != "" && strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Resolver finds the last meaningful command in a shell's history file
type Resolver struct {
	env      Environment
	filter   SelfFilter
	readFile func(name string) ([]byte, error)
}

// NewResolver creates a resolver reading history through env
func NewResolver(env Environment, filter SelfFilter) *Resolver {
	return &Resolver{
		env:      env,
		filter:   filter,
		readFile: os.ReadFile,
	}
}

// LastCommand returns the most recent history entry that is not empty, not a
// run of the tool, and does not contain exclude (when exclude is non-empty).
func (r *Resolver) LastCommand(desc Descriptor, exclude string) (string, bool) {
	found := r.scan(desc, exclude, 1)
	if len(found) == 0 {
		return "", false
	}
	return found[0], true
}

// Recent returns up to n surviving entries, most recent first
func (r *Resolver) Recent(desc Descriptor, n int) []string {
	return r.scan(desc, "", n)
}

func (r *Resolver) scan(desc Descriptor, exclude string, limit int) []string {
	records := r.records(desc)

	var found []string
	for i := len(records) - 1; i >= 0 && len(found) < limit; i-- {
		text := strings.TrimSpace(records[i].Command)
		switch {
		case text == "":
		case r.filter.Matches(text):
		case exclude != "" && strings.Contains(text, exclude):
		default:
			found = append(found, text)
		}
	}
	return found
}

func (r *Resolver) records(desc Descriptor) []history.CommandRecord {
	path, err := desc.HistoryPath(r.env)
	if err != nil {
		logging.Debug("cannot resolve %s history path: %v", desc.Name(), err)
		return nil
	}

	data, err := r.readFile(path)
	if err != nil {
		logging.Debug("cannot read %s history %s: %v", desc.Name(), path, err)
		return nil
	}
	return desc.Parse(string(data))
}
