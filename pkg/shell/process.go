package shell

import (
	"github.com/ValGrace/shelly/internal/logging"
)

// DefaultMaxDepth bounds how many processes are examined when walking up the tree
const DefaultMaxDepth = 10

// ProcessInfo is what an ancestry lookup knows about one process. Name may
// be empty when the command name could not be determined.
type ProcessInfo struct {
	PID  int
	PPID int
	Name string
}

// AncestryProvider answers "what is this process and who is its parent"
type AncestryProvider interface {
	// Name identifies the mechanism in debug output
	Name() string

	// Available reports whether the mechanism can be used on this system
	Available() bool

	// Lookup returns the command name and parent of pid
	Lookup(pid int) (ProcessInfo, error)
}

// Walker finds the nearest shell among a process's ancestors
type Walker struct {
	provider AncestryProvider
}

// NewWalker creates a walker over the given provider
func NewWalker(provider AncestryProvider) *Walker {
	return &Walker{provider: provider}
}

// FindEnclosingShell walks from startPid towards init and returns the first
// process whose name contains a registered shell name. At most maxDepth
// processes are examined. Lookup failures end the walk and are only logged.
func (w *Walker) FindEnclosingShell(startPid, maxDepth int) (Descriptor, bool) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	pid := startPid
	for depth := 0; depth < maxDepth; depth++ {
		if pid <= 0 {
			return Descriptor{}, false
		}

		info, err := w.provider.Lookup(pid)
		if err != nil {
			logging.Debug("%s: lookup of pid %d failed at depth %d: %v", w.provider.Name(), pid, depth, err)
			return Descriptor{}, false
		}

		if desc, ok := MatchProcessName(info.Name); ok {
			logging.Debug("%s: pid %d (%s) is a %s shell", w.provider.Name(), pid, info.Name, desc.Name())
			return desc, true
		}

		if info.PPID <= 0 || info.PPID == pid {
			return Descriptor{}, false
		}
		pid = info.PPID
	}

	logging.Debug("%s: no shell within %d ancestors of pid %d", w.provider.Name(), maxDepth, startPid)
	return Descriptor{}, false
}
