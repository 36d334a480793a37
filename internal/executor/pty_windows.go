//go:build windows

package executor

import (
	"context"
	"time"

	"github.com/ValGrace/shelly/internal/errors"
)

// PTYSupported reports whether pseudo-terminal mode is available
const PTYSupported = false

func (r *Runner) runPTY(_ context.Context, command, name string, _ []string, _ time.Duration) (*ExecutionResult, error) {
	return nil, errors.NewExecutionError("PTY mode is not supported on Windows", nil).
		WithContext("shell", name).
		WithContext("command", command)
}
