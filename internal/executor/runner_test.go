package executor

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValGrace/shelly/pkg/history"
	"github.com/ValGrace/shelly/pkg/shell"
)

func newTestRunner(t *testing.T, opts ...RunnerOption) *Runner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("runner tests use a POSIX shell")
	}
	env := shell.MapEnvironment{Vars: map[string]string{"SHELL": "/bin/sh"}, Home: t.TempDir()}
	base := []RunnerOption{
		WithPlatform(shell.NewPlatformAbstractionFor(shell.PlatformLinux, env), env),
	}
	r := NewRunner(append(base, opts...)...)
	t.Cleanup(r.Wait)
	return r
}

func TestRunner_SuccessKeepsStdout(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "printf hello; printf warn >&2", 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "hello", res.Stdout)
	assert.Empty(t, res.Stderr)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "hello", res.Output())
}

func TestRunner_FailureKeepsStderr(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "printf partial; printf oops >&2; exit 3", 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Empty(t, res.Stdout)
	assert.Equal(t, "oops", res.Stderr)
	assert.Equal(t, "oops", res.Output())
}

func TestRunner_FailureFoldsStdoutWhenStderrEmpty(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "printf 'only stdout'; exit 2", 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 2, res.ExitCode)
	assert.Empty(t, res.Stdout)
	assert.Equal(t, "only stdout", res.Stderr)
}

func TestRunner_CommandNotFound(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "definitely-not-a-real-command-xyz", 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 127, res.ExitCode)
	assert.Contains(t, res.Stderr, "not found")
}

func TestRunner_Timeout(t *testing.T) {
	r := newTestRunner(t)

	start := time.Now()
	res, err := r.Run(context.Background(), "printf partial; sleep 10", 300*time.Millisecond)
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Equal(t, TimeoutExitCode, res.ExitCode)
	assert.Empty(t, res.Stdout)
	assert.Equal(t, "partial", res.Stderr)
	assert.False(t, res.Succeeded())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunner_TimeoutKillsBackgroundChildren(t *testing.T) {
	r := newTestRunner(t)

	start := time.Now()
	res, err := r.Run(context.Background(), "sleep 10 & sleep 10; wait", 200*time.Millisecond)
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunner_TimeoutIgnoresEscapedDescendants(t *testing.T) {
	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("setsid not available")
	}
	r := newTestRunner(t)

	timeout := 200 * time.Millisecond
	start := time.Now()
	res, err := r.Run(context.Background(), "setsid sleep 3 & sleep 30", timeout)
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Equal(t, TimeoutExitCode, res.ExitCode)
	assert.Less(t, time.Since(start), timeout+300*time.Millisecond)
}

func TestRunner_ContextCancelFollowsTimeoutPath(t *testing.T) {
	r := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(150*time.Millisecond, cancel)

	res, err := r.Run(ctx, "sleep 10", time.Minute)
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Equal(t, TimeoutExitCode, res.ExitCode)
}

func TestRunner_DefaultTimeoutApplied(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "printf ok", 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)
}

func TestRunner_SignalExitCode(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "kill -INT $$", 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 130, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestRunner_DescendantHoldingPipes(t *testing.T) {
	r := newTestRunner(t)
	r.waitDelay = 200 * time.Millisecond

	start := time.Now()
	res, err := r.Run(context.Background(), "(sleep 3 &); printf done", 10*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "done", res.Stdout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunner_OutputCap(t *testing.T) {
	r := newTestRunner(t, WithMaxOutputBytes(10))

	res, err := r.Run(context.Background(), "printf 0123456789abcdef", 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "0123456789", res.Stdout)
	assert.True(t, res.Truncated)
}

func TestRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := newTestRunner(t, WithDir(dir))

	res, err := r.Run(context.Background(), "pwd -P", 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "/")
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunner_ConcurrentRuns(t *testing.T) {
	r := newTestRunner(t)

	var wg sync.WaitGroup
	results := make([]*ExecutionResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Run(context.Background(), fmt.Sprintf("printf %d", i), 5*time.Second)
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, fmt.Sprint(i), res.Stdout)
	}
}

func TestRunner_StartFailure(t *testing.T) {
	env := shell.MapEnvironment{Vars: map[string]string{"SHELL": "/nonexistent/shell"}}
	r := NewRunner(WithPlatform(shell.NewPlatformAbstractionFor(shell.PlatformLinux, env), env))

	_, err := r.Run(context.Background(), "true", time.Second)
	require.Error(t, err)
}

func TestRunner_PTY(t *testing.T) {
	if !PTYSupported {
		t.Skip("no PTY support on this platform")
	}
	r := newTestRunner(t, WithPTY(true))

	res, err := r.Run(context.Background(), "printf hi; printf there >&2", 5*time.Second)
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "hi")
	assert.Contains(t, res.Stdout, "there")

	res, err = r.Run(context.Background(), "printf broken; exit 4", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 4, res.ExitCode)
	assert.Contains(t, res.Stderr, "broken")
}

func TestRunner_ShellCommand(t *testing.T) {
	installed := map[string]bool{"bash": true, "pwsh": true}
	lookPath := func(name string) (string, error) {
		if installed[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
	posixEnv := shell.MapEnvironment{Vars: map[string]string{"SHELL": "/bin/zsh"}}
	linux := shell.NewPlatformAbstractionFor(shell.PlatformLinux, posixEnv)

	tests := []struct {
		name     string
		shell    history.ShellType
		platform shell.PlatformAbstraction
		env      shell.Environment
		wantName string
		wantArgs []string
	}{
		{"bash installed", history.Bash, linux, posixEnv, "/usr/bin/bash", []string{"-c", "ls"}},
		{"pwsh installed", history.Pwsh, linux, posixEnv, "/usr/bin/pwsh", []string{"-NoProfile", "-Command", "ls"}},
		{"powershell maps to pwsh off windows", history.PowerShell, linux, posixEnv, "/usr/bin/pwsh", []string{"-NoProfile", "-Command", "ls"}},
		{"fish missing falls back to SHELL", history.Fish, linux, posixEnv, "/bin/zsh", []string{"-c", "ls"}},
		{"unknown uses SHELL", history.Unknown, linux, posixEnv, "/bin/zsh", []string{"-c", "ls"}},
		{"unknown without SHELL", history.Unknown, shell.NewPlatformAbstractionFor(shell.PlatformLinux, shell.MapEnvironment{}), shell.MapEnvironment{}, "/bin/sh", []string{"-c", "ls"}},
		{"windows without shell", history.Unknown, shell.NewPlatformAbstractionFor(shell.PlatformWindows, shell.MapEnvironment{}), shell.MapEnvironment{}, "cmd", []string{"/C", "ls"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(WithShell(tt.shell), WithPlatform(tt.platform, tt.env))
			r.lookPath = lookPath

			name, args := r.shellCommand("ls")
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestOutcome_SettlesOnce(t *testing.T) {
	o := newOutcome()

	var wg sync.WaitGroup
	wins := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins <- o.settle(&ExecutionResult{ExitCode: i})
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for w := range wins {
		if w {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, o.ch, 1)
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, 0, exitCodeOf(nil))
	assert.Equal(t, 0, exitCodeOf(exec.ErrWaitDelay))
	assert.Equal(t, 1, exitCodeOf(fmt.Errorf("boom")))
}

func TestCollector(t *testing.T) {
	c := newCollector(5)

	n, err := c.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, c.Truncated())

	n, err = c.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "abcde", c.String())
	assert.True(t, c.Truncated())
}
