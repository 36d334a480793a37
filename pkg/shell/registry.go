package shell

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ValGrace/shelly/pkg/history"
)

// HistoryPathRule computes where a shell keeps its history from the
// environment and the user's home directory
type HistoryPathRule func(env Environment, home string) string

// Descriptor identifies a shell family together with how to find and read
// its history file
type Descriptor struct {
	Shell       history.ShellType
	historyPath HistoryPathRule
	parse       history.Parser
}

// Name returns the shell family name
func (d Descriptor) Name() string {
	return d.Shell.String()
}

// HistoryPath resolves the history file location. It is recomputed on every
// call since the environment may have changed.
func (d Descriptor) HistoryPath(env Environment) (string, error) {
	home, err := env.HomeDir()
	if err != nil {
		return "", err
	}
	return d.historyPath(env, home), nil
}

// Parse converts raw history file content into records, oldest first
func (d Descriptor) Parse(content string) []history.CommandRecord {
	return d.parse(content)
}

var registry = map[history.ShellType]Descriptor{
	history.Zsh: {
		Shell:       history.Zsh,
		historyPath: histfileOr(".zsh_history"),
		parse:       history.ParseZsh,
	},
	history.Bash: {
		Shell:       history.Bash,
		historyPath: histfileOr(".bash_history"),
		parse:       history.ParseFlat,
	},
	history.Fish: {
		Shell:       history.Fish,
		historyPath: fishHistoryPath,
		parse:       history.ParseFish,
	},
	history.Tcsh: {
		Shell:       history.Tcsh,
		historyPath: homeFile(".history"),
		parse:       history.ParseFlat,
	},
	history.Csh: {
		Shell:       history.Csh,
		historyPath: homeFile(".history"),
		parse:       history.ParseFlat,
	},
	history.Pwsh: {
		Shell:       history.Pwsh,
		historyPath: psReadLinePath,
		parse:       history.ParseFlat,
	},
	history.PowerShell: {
		Shell:       history.PowerShell,
		historyPath: psReadLinePath,
		parse:       history.ParseFlat,
	},
}

// matchOrder holds registered names longest first so that "tcsh" is tried
// before "csh" and "powershell" before anything it contains
var matchOrder = func() []string {
	names := make([]string, 0, len(registry))
	for shell := range registry {
		names = append(names, shell.String())
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

// Resolve looks up a shell family by exact name. Unknown names report false.
func Resolve(name string) (Descriptor, bool) {
	return Lookup(history.ParseShellType(name))
}

// Lookup returns the descriptor for a shell type
func Lookup(shell history.ShellType) (Descriptor, bool) {
	desc, ok := registry[shell]
	return desc, ok
}

// Names returns every registered family name, longest first
func Names() []string {
	out := make([]string, len(matchOrder))
	copy(out, matchOrder)
	return out
}

// MatchProcessName finds the registered family whose name occurs anywhere in
// the lower-cased process name. Process names often carry paths or version
// suffixes ("/usr/bin/zsh", "bash-5.2", "pwsh.exe").
func MatchProcessName(processName string) (Descriptor, bool) {
	lower := strings.ToLower(strings.TrimSpace(processName))
	if lower == "" {
		return Descriptor{}, false
	}
	for _, name := range matchOrder {
		if strings.Contains(lower, name) {
			return Resolve(name)
		}
	}
	return Descriptor{}, false
}

func homeFile(name string) HistoryPathRule {
	return func(_ Environment, home string) string {
		return filepath.Join(home, name)
	}
}

func histfileOr(name string) HistoryPathRule {
	return func(env Environment, home string) string {
		if histfile := env.Getenv("HISTFILE"); histfile != "" {
			return expandHome(histfile, home)
		}
		return filepath.Join(home, name)
	}
}

func fishHistoryPath(env Environment, home string) string {
	session := env.Getenv("fish_history")
	if session == "" {
		session = "fish"
	}
	return filepath.Join(xdgDataHome(env, home), "fish", session+"_history")
}

func psReadLinePath(env Environment, home string) string {
	if appData := env.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "Microsoft", "Windows", "PowerShell", "PSReadLine", "ConsoleHost_history.txt")
	}
	return filepath.Join(xdgDataHome(env, home), "powershell", "PSReadLine", "ConsoleHost_history.txt")
}

func xdgDataHome(env Environment, home string) string {
	if dir := env.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(home, ".local", "share")
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
