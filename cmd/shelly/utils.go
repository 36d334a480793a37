package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ValGrace/shelly/internal/errors"
)

// isTerminal reports whether w is an interactive terminal
func isTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printError reports a failure on stderr, followed by the hint and
// location carried by shelly errors
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var shellyErr *errors.ShellyError
	if !stderrors.As(err, &shellyErr) {
		return
	}
	if path, ok := shellyErr.Context["path"]; ok {
		fmt.Fprintf(w, "Path: %v\n", path)
	}
	if hint, ok := shellyErr.Context["hint"]; ok {
		fmt.Fprintf(w, "Hint: %v\n", hint)
	}
}

// parseDuration accepts Go durations plus day and week suffixes, e.g. "7d"
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var multiplier time.Duration
	switch s[len(s)-1] {
	case 'd':
		multiplier = 24 * time.Hour
	case 'w':
		multiplier = 7 * 24 * time.Hour
	default:
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return d, nil
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(n) * multiplier, nil
}
