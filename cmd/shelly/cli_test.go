package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ValGrace/shelly/internal/config"
	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/version"
	"github.com/ValGrace/shelly/pkg/history"
	"github.com/ValGrace/shelly/pkg/shell"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

// setupCLIEnv points every shelly location at a temp dir and clears the
// variables that would change behaviour between machines
func setupCLIEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	t.Setenv("HOME", tmpDir)
	t.Setenv("USERPROFILE", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("ZDOTDIR", "")
	t.Setenv(config.HomeEnv, filepath.Join(tmpDir, ".shelly"))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SHELLY_DEBUG", "")
	t.Setenv(shell.LastCommandVar, "")
	t.Setenv("SHELL_OVERRIDE", "bash")
	t.Setenv("HISTFILE", filepath.Join(tmpDir, ".bash_history"))

	return tmpDir
}

func resetFlags() {
	rootFlags.timeoutMs = 0
	rootFlags.pty = false
	rootFlags.debug = false
	rootFlags.noAnalyze = false

	detectFlags.recent = 0
	detectFlags.json = false

	historyFlags.limit = 50
	historyFlags.since = ""
	historyFlags.search = ""
	historyFlags.failed = false
	historyFlags.json = false
	historyFlags.prune = false
	historyFlags.maxAge = ""
	historyFlags.maxEntries = 0

	configFlags.get = ""
	configFlags.set = ""
	configFlags.reset = false
	configFlags.showPath = false

	versionFlags.short = false
}

func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("runs commands through a POSIX shell")
	}
}

func historyJSON(t *testing.T, args ...string) []history.Entry {
	t.Helper()
	res := runCLI(t, "", append([]string{"history", "--json"}, args...)...)
	if res.code != 0 {
		t.Fatalf("history exited %d: %s", res.code, res.stderr)
	}

	var entries []history.Entry
	if err := json.Unmarshal([]byte(res.stdout), &entries); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, res.stdout)
	}
	return entries
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"30m", 30 * time.Minute, false},
		{"2h", 2 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"1h30m", 90 * time.Minute, false},
		{"d", 0, true},
		{"xd", 0, true},
		{"-1d", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseDuration(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDuration(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	err := errors.NewHistoryError("no previous command found in bash history", nil).
		WithContext("path", "/home/u/.bash_history").
		WithContext("hint", "run a command first")

	printError(&buf, err)

	want := "Error: history error: no previous command found in bash history\n" +
		"Path: /home/u/.bash_history\n" +
		"Hint: run a command first\n"
	if buf.String() != want {
		t.Errorf("printError output = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	printError(&buf, io.ErrUnexpectedEOF)
	if buf.String() != "Error: unexpected EOF\n" {
		t.Errorf("plain error output = %q", buf.String())
	}
}

func TestVersionCommand(t *testing.T) {
	setupCLIEnv(t)

	res := runCLI(t, "", "version", "--short")
	if res.code != 0 {
		t.Fatalf("version exited %d: %s", res.code, res.stderr)
	}
	if strings.TrimSpace(res.stdout) != version.Short() {
		t.Errorf("version --short = %q, want %q", res.stdout, version.Short())
	}

	res = runCLI(t, "", "version")
	if !strings.HasPrefix(res.stdout, "shelly ") || !strings.Contains(res.stdout, "Go Version:") {
		t.Errorf("unexpected version output: %q", res.stdout)
	}
}

func TestConfigCommand(t *testing.T) {
	tmpDir := setupCLIEnv(t)

	t.Run("Path", func(t *testing.T) {
		res := runCLI(t, "", "config", "--path")
		want := filepath.Join(tmpDir, ".shelly", "config.json")
		if !strings.Contains(res.stdout, want) {
			t.Errorf("config --path = %q, want it to mention %s", res.stdout, want)
		}
	})

	t.Run("SetAndGet", func(t *testing.T) {
		res := runCLI(t, "", "config", "--set", "timeout_ms=5000")
		if res.code != 0 {
			t.Fatalf("config --set exited %d: %s", res.code, res.stderr)
		}
		if !strings.Contains(res.stdout, "timeout_ms = 5000") {
			t.Errorf("unexpected set output: %q", res.stdout)
		}

		res = runCLI(t, "", "config", "--get", "timeout-ms")
		if strings.TrimSpace(res.stdout) != "5000" {
			t.Errorf("config --get timeout-ms = %q, want 5000", res.stdout)
		}

		cfg, err := config.Load()
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.TimeoutMs != 5000 {
			t.Errorf("saved timeout = %d, want 5000", cfg.TimeoutMs)
		}
	})

	t.Run("InvalidValues", func(t *testing.T) {
		for _, kv := range []string{"timeout_ms=0", "storage_backend=csv", "no_such_key=1", "timeout_ms"} {
			res := runCLI(t, "", "config", "--set", kv)
			if res.code != 1 {
				t.Errorf("config --set %s exited %d, want 1", kv, res.code)
			}
			if !strings.HasPrefix(res.stderr, "Error: ") {
				t.Errorf("config --set %s stderr = %q", kv, res.stderr)
			}
		}
	})

	t.Run("ListAndReset", func(t *testing.T) {
		res := runCLI(t, "", "config")
		if !strings.Contains(res.stdout, "timeout_ms") || !strings.Contains(res.stdout, "analysis.model") {
			t.Errorf("config listing is missing keys: %q", res.stdout)
		}

		res = runCLI(t, "", "config", "--reset")
		if res.code != 0 {
			t.Fatalf("config --reset exited %d: %s", res.code, res.stderr)
		}
		res = runCLI(t, "", "config", "--get", "timeout_ms")
		if strings.TrimSpace(res.stdout) != "15000" {
			t.Errorf("timeout after reset = %q, want 15000", res.stdout)
		}
	})
}

func TestAliasCommand(t *testing.T) {
	setupCLIEnv(t)

	res := runCLI(t, "", "alias", "bash")
	if res.code != 0 {
		t.Fatalf("alias exited %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "shelly()") || !strings.Contains(res.stdout, shell.LastCommandVar) {
		t.Errorf("unexpected bash function: %q", res.stdout)
	}

	res = runCLI(t, "", "alias", "fish")
	if !strings.Contains(res.stdout, "function shelly") {
		t.Errorf("unexpected fish function: %q", res.stdout)
	}

	res = runCLI(t, "", "alias", "cmd.exe")
	if res.code != 1 || !strings.Contains(res.stderr, "unknown shell") {
		t.Errorf("alias cmd.exe = %d %q, want unknown shell error", res.code, res.stderr)
	}
}

func TestSetupAndRemove(t *testing.T) {
	setupCLIEnv(t)

	rcPath, err := shell.NewIntegrator("shelly").ConfigPath(history.Zsh)
	if err != nil {
		t.Fatalf("Failed to resolve rc path: %v", err)
	}
	if err := os.WriteFile(rcPath, []byte("export EDITOR=vim\n"), 0644); err != nil {
		t.Fatalf("Failed to write rc file: %v", err)
	}

	res := runCLI(t, "", "setup", "zsh")
	if res.code != 0 {
		t.Fatalf("setup exited %d: %s", res.code, res.stderr)
	}
	content, _ := os.ReadFile(rcPath)
	if !strings.Contains(string(content), "# >>> shelly integration >>>") {
		t.Fatalf("rc file missing integration block:\n%s", content)
	}

	res = runCLI(t, "", "setup", "zsh")
	if !strings.Contains(res.stdout, "already set up") {
		t.Errorf("second setup output = %q", res.stdout)
	}
	again, _ := os.ReadFile(rcPath)
	if string(again) != string(content) {
		t.Error("second setup changed the rc file")
	}

	res = runCLI(t, "", "remove", "zsh")
	if res.code != 0 {
		t.Fatalf("remove exited %d: %s", res.code, res.stderr)
	}
	content, _ = os.ReadFile(rcPath)
	if string(content) != "export EDITOR=vim\n" {
		t.Errorf("rc file after remove = %q", content)
	}

	res = runCLI(t, "", "remove", "zsh")
	if !strings.Contains(res.stdout, "not set up") {
		t.Errorf("second remove output = %q", res.stdout)
	}
}

func TestRunCommandAndHistory(t *testing.T) {
	requireUnix(t)
	setupCLIEnv(t)

	res := runCLI(t, "", "--no-analyze", "echo", "hello")
	if res.code != 0 {
		t.Fatalf("run exited %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "Running: echo hello") || !strings.Contains(res.stdout, "Command succeeded") {
		t.Errorf("unexpected run output: %q", res.stdout)
	}
	if !strings.Contains(res.stdout, "hello\n") {
		t.Errorf("command output missing: %q", res.stdout)
	}

	// A failing command is reported, not turned into a shelly failure
	res = runCLI(t, "", "--no-analyze", "--", "false")
	if res.code != 0 {
		t.Fatalf("failing command made shelly exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "Command failed with exit code 1") {
		t.Errorf("unexpected failure output: %q", res.stdout)
	}

	entries := historyJSON(t)
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	if entries[0].Command != "echo hello" || entries[1].Command != "false" {
		t.Errorf("unexpected history order: %q, %q", entries[0].Command, entries[1].Command)
	}
	if entries[1].ExitCode == nil || *entries[1].ExitCode != 1 {
		t.Errorf("expected exit code 1 for false, got %s", entries[1].ExitCodeString())
	}

	failed := historyJSON(t, "--failed")
	if len(failed) != 1 || failed[0].Command != "false" {
		t.Errorf("--failed returned %+v", failed)
	}

	searched := historyJSON(t, "--search", "ECHO")
	if len(searched) != 1 {
		t.Errorf("--search returned %d entries", len(searched))
	}

	res = runCLI(t, "", "history", "--prune", "--max-entries", "1")
	if !strings.Contains(res.stdout, "Pruned 1 entries") {
		t.Errorf("unexpected prune output: %q (%s)", res.stdout, res.stderr)
	}
	if remaining := historyJSON(t); len(remaining) != 1 {
		t.Errorf("expected 1 entry after prune, got %d", len(remaining))
	}
}

func TestRunTimeout(t *testing.T) {
	requireUnix(t)
	setupCLIEnv(t)

	res := runCLI(t, "", "--no-analyze", "--timeout", "200", "sleep", "5")
	if res.code != 0 {
		t.Fatalf("timed out command made shelly exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "Command timed out after") {
		t.Errorf("unexpected timeout output: %q", res.stdout)
	}
}

func TestRunLastCommand(t *testing.T) {
	requireUnix(t)

	t.Run("FromShellFunction", func(t *testing.T) {
		setupCLIEnv(t)
		t.Setenv(shell.LastCommandVar, "echo again")

		res := runCLI(t, "", "--no-analyze")
		if res.code != 0 {
			t.Fatalf("exited %d: %s", res.code, res.stderr)
		}
		if !strings.Contains(res.stdout, "again\n") {
			t.Errorf("unexpected output: %q", res.stdout)
		}
		if entries := historyJSON(t); len(entries) != 0 {
			t.Errorf("re-run was recorded: %+v", entries)
		}
	})

	t.Run("FromHistoryFile", func(t *testing.T) {
		tmpDir := setupCLIEnv(t)
		histfile := filepath.Join(tmpDir, ".bash_history")
		if err := os.WriteFile(histfile, []byte("echo from-file\nshelly\n"), 0644); err != nil {
			t.Fatalf("Failed to write history: %v", err)
		}

		res := runCLI(t, "", "--no-analyze")
		if !strings.Contains(res.stdout, "Running: echo from-file") {
			t.Errorf("unexpected output: %q (%s)", res.stdout, res.stderr)
		}
	})

	t.Run("NothingFound", func(t *testing.T) {
		setupCLIEnv(t)

		res := runCLI(t, "", "--no-analyze")
		if res.code != 0 {
			t.Fatalf("empty history made shelly exit %d", res.code)
		}
		if !strings.Contains(res.stderr, "no previous command found in bash history") {
			t.Errorf("unexpected stderr: %q", res.stderr)
		}
	})

	t.Run("UnknownOverride", func(t *testing.T) {
		setupCLIEnv(t)
		t.Setenv("SHELL_OVERRIDE", "nushell")

		res := runCLI(t, "", "--no-analyze")
		if res.code != 0 {
			t.Fatalf("undetected shell made shelly exit %d", res.code)
		}
		if !strings.Contains(res.stderr, "could not detect your shell") {
			t.Errorf("unexpected stderr: %q", res.stderr)
		}
	})

	t.Run("DangerousCommandRefused", func(t *testing.T) {
		setupCLIEnv(t)
		t.Setenv(shell.LastCommandVar, "rm -rf /")

		res := runCLI(t, "", "--no-analyze")
		if res.code != 0 {
			t.Fatalf("refused re-run exited %d, want 0", res.code)
		}
		if strings.Contains(res.stdout, "Running:") {
			t.Error("dangerous command was started")
		}
		if !strings.Contains(res.stderr, "refusing to re-run a dangerous command") {
			t.Errorf("expected a refusal warning, got %q", res.stderr)
		}
	})
}

func TestDetectCommand(t *testing.T) {
	tmpDir := setupCLIEnv(t)
	histfile := filepath.Join(tmpDir, ".bash_history")
	if err := os.WriteFile(histfile, []byte("ls\nmake\nshelly detect\n"), 0644); err != nil {
		t.Fatalf("Failed to write history: %v", err)
	}

	res := runCLI(t, "", "detect", "--json", "--recent", "5")
	if res.code != 0 {
		t.Fatalf("detect exited %d: %s", res.code, res.stderr)
	}

	var report struct {
		Found       bool     `json:"found"`
		Shell       string   `json:"shell"`
		Source      string   `json:"source"`
		HistoryPath string   `json:"historyPath"`
		LastCommand string   `json:"lastCommand"`
		Recent      []string `json:"recent"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &report); err != nil {
		t.Fatalf("detect output is not JSON: %v\n%s", err, res.stdout)
	}

	if !report.Found || report.Shell != "bash" || report.Source != "override" {
		t.Errorf("unexpected detection: %+v", report)
	}
	if report.HistoryPath != histfile {
		t.Errorf("history path = %q, want %q", report.HistoryPath, histfile)
	}
	if report.LastCommand != "make" {
		t.Errorf("last command = %q, want make", report.LastCommand)
	}
	if len(report.Recent) != 2 {
		t.Errorf("recent = %v, want [make ls]", report.Recent)
	}

	res = runCLI(t, "", "detect")
	if !strings.Contains(res.stdout, "Shell:        bash") || !strings.Contains(res.stdout, "Last command: make") {
		t.Errorf("unexpected detect output: %q", res.stdout)
	}
}

func TestExplainCommand(t *testing.T) {
	setupCLIEnv(t)

	res := runCLI(t, "", "explain", "segmentation", "fault")
	if res.code != 1 {
		t.Fatalf("explain without API key exited %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, "Hint: set GEMINI_API_KEY") {
		t.Errorf("unexpected stderr: %q", res.stderr)
	}

	runCLI(t, "ModuleNotFoundError: No module named 'yaml'\n", "explain")

	entries := historyJSON(t)
	if len(entries) != 2 {
		t.Fatalf("expected 2 recorded texts, got %d", len(entries))
	}
	if entries[0].Command != "segmentation fault" {
		t.Errorf("first entry = %q", entries[0].Command)
	}
	if entries[1].Command != "ModuleNotFoundError: No module named 'yaml'" {
		t.Errorf("stdin entry = %q", entries[1].Command)
	}
	for _, e := range entries {
		if e.ExitCode != nil {
			t.Errorf("explained text %q has exit code %d", e.Command, *e.ExitCode)
		}
	}

	res = runCLI(t, "", "explain")
	if res.code != 1 || !strings.Contains(res.stderr, "nothing to explain") {
		t.Errorf("empty explain = %d %q", res.code, res.stderr)
	}
}
