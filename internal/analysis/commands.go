package analysis

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/pkg/shell"
)

const pathScanWorkers = 8

// AvailableCommands lists the executables reachable through pathList,
// de-duplicated and sorted. Unreadable directories are skipped.
func AvailableCommands(ctx context.Context, pathList string, platform shell.PlatformAbstraction) ([]string, error) {
	dirs := uniqueDirs(filepath.SplitList(pathList))

	var (
		mu    sync.Mutex
		found = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pathScanWorkers)

	for _, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			names := scanDir(dir, platform)
			mu.Lock()
			for _, name := range names {
				found[name] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(found))
	for name := range found {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func uniqueDirs(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		out = append(out, dir)
	}
	return out
}

func scanDir(dir string, platform shell.PlatformAbstraction) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Debug("skipping PATH entry %s: %v", dir, err)
		return nil
	}

	windows := platform.GetPlatform() == shell.PlatformWindows
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !platform.IsExecutable(filepath.Join(dir, entry.Name())) {
			continue
		}
		name := entry.Name()
		if windows {
			name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		names = append(names, name)
	}
	return names
}
