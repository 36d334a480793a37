package executor

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/pkg/history"
	"github.com/ValGrace/shelly/pkg/shell"
)

const (
	// DefaultTimeout bounds a command when the caller does not
	DefaultTimeout = 15 * time.Second

	// TimeoutExitCode is reported for commands that were killed on timeout
	TimeoutExitCode = 1

	defaultWaitDelay = 2 * time.Second
)

// ExecutionResult contains the classified outcome of one command run.
// Exactly one of Stdout or Stderr is populated.
type ExecutionResult struct {
	Command   string
	Stdout    string
	Stderr    string
	ExitCode  int
	TimedOut  bool
	Truncated bool
	Duration  time.Duration
}

// Succeeded reports whether the command exited zero without timing out
func (r *ExecutionResult) Succeeded() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Output returns whichever stream the classification kept
func (r *ExecutionResult) Output() string {
	if r.Succeeded() {
		return r.Stdout
	}
	return r.Stderr
}

// Runner executes commands through a shell, capturing output under a timeout
type Runner struct {
	shellType      history.ShellType
	platform       shell.PlatformAbstraction
	env            shell.Environment
	usePTY         bool
	dir            string
	maxOutputBytes int
	waitDelay      time.Duration
	lookPath       func(string) (string, error)

	watchers sync.WaitGroup
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithShell selects the shell family used to interpret commands
func WithShell(shellType history.ShellType) RunnerOption {
	return func(r *Runner) { r.shellType = shellType }
}

// WithPlatform overrides the platform and environment used to pick a shell
func WithPlatform(platform shell.PlatformAbstraction, env shell.Environment) RunnerOption {
	return func(r *Runner) {
		r.platform = platform
		r.env = env
	}
}

// WithPTY runs commands attached to a pseudo-terminal
func WithPTY(enabled bool) RunnerOption {
	return func(r *Runner) { r.usePTY = enabled }
}

// WithDir sets the working directory for commands
func WithDir(dir string) RunnerOption {
	return func(r *Runner) { r.dir = dir }
}

// WithMaxOutputBytes caps the retained size of each output stream
func WithMaxOutputBytes(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxOutputBytes = n
		}
	}
}

// NewRunner creates a command runner
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		platform:       shell.NewPlatformAbstraction(),
		env:            shell.OSEnvironment(),
		maxOutputBytes: DefaultMaxOutputBytes,
		waitDelay:      defaultWaitDelay,
		lookPath:       exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes command and waits for it to exit or for the timeout to
// elapse, whichever comes first. Cancelling ctx is treated as a timeout.
// A non-nil error means the shell itself could not be started; command
// failures are reported through the result.
func (r *Runner) Run(ctx context.Context, command string, timeout time.Duration) (*ExecutionResult, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	name, args := r.shellCommand(command)
	logging.Debug("running %q via %s %v (timeout %s)", command, name, args, timeout)

	if r.usePTY {
		return r.runPTY(ctx, command, name, args, timeout)
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = r.dir
	cmd.Env = os.Environ()
	cmd.WaitDelay = r.waitDelay
	setupProcessGroup(cmd)

	p := &process{
		command: command,
		cmd:     cmd,
		stdout:  newCollector(r.maxOutputBytes),
		stderr:  newCollector(r.maxOutputBytes),
	}
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	p.wait = cmd.Wait

	p.start = time.Now()
	if err := cmd.Start(); err != nil {
		return nil, errors.NewExecutionError("failed to start shell", err).
			WithContext("shell", name).
			WithContext("command", command)
	}

	return r.await(ctx, p, timeout), nil
}

// Wait blocks until every process started by r has been reaped. Run
// returns as soon as a timed-out command is killed, while descendants that
// left the process group may keep its pipes open for up to the wait delay.
func (r *Runner) Wait() {
	r.watchers.Wait()
}

// shellCommand picks the interpreter for the detected shell family. A
// detected shell that is not installed falls back to $SHELL or /bin/sh.
func (r *Runner) shellCommand(command string) (string, []string) {
	switch r.shellType {
	case history.Bash, history.Zsh, history.Fish, history.Tcsh, history.Csh:
		if exe, ok := r.installed(r.shellType); ok {
			return exe, []string{"-c", command}
		}
	case history.Pwsh, history.PowerShell:
		if exe, ok := r.installed(r.shellType); ok {
			return exe, []string{"-NoProfile", "-Command", command}
		}
	}

	if r.platform.GetPlatform() == shell.PlatformWindows {
		return "cmd", []string{"/C", command}
	}
	if sh := r.env.Getenv("SHELL"); sh != "" {
		return sh, []string{"-c", command}
	}
	return "/bin/sh", []string{"-c", command}
}

func (r *Runner) installed(shellType history.ShellType) (string, bool) {
	exe := r.platform.GetShellExecutableName(shellType)
	if exe == "" {
		return "", false
	}
	path, err := r.lookPath(exe)
	if err != nil {
		logging.Debug("%s not found on PATH: %v", exe, err)
		return "", false
	}
	return path, true
}

// process is one started command together with its output sinks
type process struct {
	command string
	cmd     *exec.Cmd
	start   time.Time
	stdout  *collector
	stderr  *collector
	wait    func() error
	cleanup func()
}

// finished classifies a normal exit
func (p *process) finished(waitErr error) *ExecutionResult {
	res := &ExecutionResult{
		Command:   p.command,
		ExitCode:  exitCodeOf(waitErr),
		Duration:  time.Since(p.start),
		Truncated: p.stdout.Truncated() || p.stderr.Truncated(),
	}

	stdout, stderr := p.stdout.String(), p.stderr.String()
	switch {
	case res.ExitCode == 0:
		res.Stdout = stdout
	case stderr != "":
		res.Stderr = stderr
	default:
		res.Stderr = stdout
	}
	return res
}

// expired classifies a run cut short, keeping everything captured so far
func (p *process) expired() *ExecutionResult {
	return &ExecutionResult{
		Command:   p.command,
		Stderr:    p.stderr.String() + p.stdout.String(),
		ExitCode:  TimeoutExitCode,
		TimedOut:  true,
		Duration:  time.Since(p.start),
		Truncated: p.stdout.Truncated() || p.stderr.Truncated(),
	}
}

func (p *process) kill() {
	if err := killProcessGroup(p.cmd); err != nil {
		logging.Debug("failed to kill %q: %v", p.command, err)
	}
}

// outcome delivers exactly one result no matter how many paths race to
// settle it
type outcome struct {
	once sync.Once
	ch   chan *ExecutionResult
}

func newOutcome() *outcome {
	return &outcome{ch: make(chan *ExecutionResult, 1)}
}

func (o *outcome) settle(res *ExecutionResult) bool {
	settled := false
	o.once.Do(func() {
		o.ch <- res
		settled = true
	})
	return settled
}

func (r *Runner) await(ctx context.Context, p *process, timeout time.Duration) *ExecutionResult {
	o := newOutcome()

	r.watchers.Add(1)
	go func() {
		defer r.watchers.Done()
		err := p.wait()
		if p.cleanup != nil {
			p.cleanup()
		}
		o.settle(p.finished(err))
	}()

	expire := func() {
		if o.settle(p.expired()) {
			logging.Debug("command %q timed out after %s", p.command, time.Since(p.start))
			p.kill()
		}
	}
	timer := time.AfterFunc(timeout, expire)
	defer timer.Stop()

	select {
	case res := <-o.ch:
		return res
	case <-ctx.Done():
		expire()
		return <-o.ch
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		return signalExitCode(exitErr.ProcessState)
	}

	// The process exited cleanly but a descendant held the pipes open
	if stderrors.Is(err, exec.ErrWaitDelay) {
		return 0
	}

	logging.Debug("wait failed: %v", err)
	return 1
}
