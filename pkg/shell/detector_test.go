package shell

import (
	"testing"

	"github.com/ValGrace/shelly/pkg/history"
)

// panicProvider simulates a mechanism that blows up mid-walk
type panicProvider struct{}

func (panicProvider) Name() string                    { return "panic" }
func (panicProvider) Available() bool                 { return true }
func (panicProvider) Lookup(int) (ProcessInfo, error) { panic("boom") }

func shellTree(name string) *fakeProvider {
	return newFakeProvider(
		ProcessInfo{PID: 100, PPID: 50, Name: "shelly"},
		ProcessInfo{PID: 50, PPID: 1, Name: name},
	)
}

func TestDetector_Detect(t *testing.T) {
	unavailable := shellTree("zsh")
	unavailable.available = false

	tests := []struct {
		name     string
		vars     map[string]string
		primary  AncestryProvider
		fallback AncestryProvider
		expected history.ShellType
		source   DetectionSource
		found    bool
	}{
		{
			name:     "override wins over everything",
			vars:     map[string]string{"SHELL_OVERRIDE": "fish", "SHELL": "/bin/bash"},
			primary:  shellTree("zsh"),
			expected: history.Fish,
			source:   SourceOverride,
			found:    true,
		},
		{
			name:     "override is case-insensitive",
			vars:     map[string]string{"SHELL_OVERRIDE": "PowerShell"},
			expected: history.PowerShell,
			source:   SourceOverride,
			found:    true,
		},
		{
			name:     "unrecognized override is authoritative",
			vars:     map[string]string{"SHELL_OVERRIDE": "unknownshell", "SHELL": "/bin/bash"},
			primary:  shellTree("zsh"),
			fallback: shellTree("zsh"),
			found:    false,
		},
		{
			name:     "process tree",
			vars:     map[string]string{"SHELL": "/bin/bash"},
			primary:  shellTree("zsh"),
			expected: history.Zsh,
			source:   SourceProcessTree,
			found:    true,
		},
		{
			name:     "ps fallback when primary finds nothing",
			primary:  shellTree("launchd"),
			fallback: shellTree("tcsh"),
			expected: history.Tcsh,
			source:   SourcePS,
			found:    true,
		},
		{
			name:     "ps fallback when primary unavailable",
			primary:  unavailable,
			fallback: shellTree("bash"),
			expected: history.Bash,
			source:   SourcePS,
			found:    true,
		},
		{
			name:     "ps fallback when primary panics",
			primary:  panicProvider{},
			fallback: shellTree("csh"),
			expected: history.Csh,
			source:   SourcePS,
			found:    true,
		},
		{
			name:     "SHELL basename",
			vars:     map[string]string{"SHELL": "/usr/local/bin/zsh"},
			primary:  shellTree("init"),
			fallback: shellTree("init"),
			expected: history.Zsh,
			source:   SourceEnvironment,
			found:    true,
		},
		{
			name:     "SHELL windows path",
			vars:     map[string]string{"SHELL": `C:\Program Files\PowerShell\7\pwsh.exe`},
			expected: history.Pwsh,
			source:   SourceEnvironment,
			found:    true,
		},
		{
			name: "SHELL basename needs an exact match",
			vars: map[string]string{"SHELL": "/opt/bin/zsh-5.9"},
		},
		{
			name: "nothing works",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewDetector(
				WithEnvironment(MapEnvironment{Vars: tt.vars, Home: "/home/test"}),
				WithStartPID(100),
				WithProviders(tt.primary, tt.fallback),
			)

			got, ok := detector.Detect()
			if ok != tt.found {
				t.Fatalf("Detect() found = %v, want %v (got %v via %v)", ok, tt.found, got.Shell, got.Source)
			}
			if !ok {
				return
			}
			if got.Shell != tt.expected {
				t.Errorf("Detect() = %v, want %v", got.Shell, tt.expected)
			}
			if got.Source != tt.source {
				t.Errorf("Detect() source = %v, want %v", got.Source, tt.source)
			}
		})
	}
}

func TestDetector_OverrideVarConfigurable(t *testing.T) {
	detector := NewDetector(
		WithEnvironment(MapEnvironment{Vars: map[string]string{"MY_SHELL": "bash", "SHELL_OVERRIDE": "zsh"}}),
		WithOverrideVar("MY_SHELL"),
		WithProviders(nil, nil),
	)

	got, err := detector.DetectShell()
	if err != nil {
		t.Fatalf("DetectShell() error = %v", err)
	}
	if got != history.Bash {
		t.Errorf("DetectShell() = %v, want %v", got, history.Bash)
	}
}

func TestDetector_DetectShellError(t *testing.T) {
	detector := NewDetector(WithEnvironment(MapEnvironment{}), WithProviders(nil, nil))

	got, err := detector.DetectShell()
	if err == nil {
		t.Error("DetectShell() should fail when nothing is detected")
	}
	if got != history.Unknown {
		t.Errorf("DetectShell() = %v, want %v", got, history.Unknown)
	}
}

func TestDetector_MaxDepthPassedToWalk(t *testing.T) {
	provider := newFakeProvider(
		ProcessInfo{PID: 100, PPID: 90, Name: "shelly"},
		ProcessInfo{PID: 90, PPID: 80, Name: "make"},
		ProcessInfo{PID: 80, PPID: 1, Name: "bash"},
	)

	detector := NewDetector(
		WithEnvironment(MapEnvironment{}),
		WithStartPID(100),
		WithMaxDepth(2),
		WithProviders(provider, nil),
	)
	if _, ok := detector.Detect(); ok {
		t.Error("Detect() should not see past maxDepth")
	}
}
