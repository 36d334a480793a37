//go:build !windows

package executor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"

	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/logging"
)

// PTYSupported reports whether pseudo-terminal mode is available
const PTYSupported = true

// runPTY runs the command attached to a pseudo-terminal. Programs that
// colour or buffer differently when not on a terminal behave as they would
// interactively, at the cost of a single merged output stream.
func (r *Runner) runPTY(ctx context.Context, command, name string, args []string, timeout time.Duration) (*ExecutionResult, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = r.dir
	cmd.Env = os.Environ()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return nil, errors.NewExecutionError("failed to start PTY", err).
			WithContext("shell", name).
			WithContext("command", command)
	}

	p := &process{
		command: command,
		cmd:     cmd,
		start:   time.Now(),
		stdout:  newCollector(r.maxOutputBytes),
		stderr:  newCollector(r.maxOutputBytes),
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		// Reading the master fails with EIO once the terminal side closes
		if _, err := io.Copy(p.stdout, ptmx); err != nil {
			logging.Debug("pty read ended: %v", err)
		}
	}()

	p.wait = func() error {
		err := cmd.Wait()
		select {
		case <-drained:
		case <-time.After(r.waitDelay):
			logging.Debug("pty output for %q still open after exit", command)
		}
		return err
	}
	p.cleanup = func() {
		_ = ptmx.Close()
		select {
		case <-drained:
		case <-time.After(r.waitDelay):
		}
	}

	return r.await(ctx, p, timeout), nil
}
