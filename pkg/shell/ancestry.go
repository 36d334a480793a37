package shell

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"
)

// LibraryProvider reads the process table through go-ps
type LibraryProvider struct {
	find func(pid int) (ps.Process, error)
}

// NewLibraryProvider creates a provider backed by the platform process table
func NewLibraryProvider() *LibraryProvider {
	return &LibraryProvider{find: ps.FindProcess}
}

func (p *LibraryProvider) Name() string {
	return "process-table"
}

func (p *LibraryProvider) Available() bool {
	return p.find != nil
}

func (p *LibraryProvider) Lookup(pid int) (ProcessInfo, error) {
	proc, err := p.find(pid)
	if err != nil {
		return ProcessInfo{}, fmt.Errorf("failed to read process %d: %w", pid, err)
	}
	if proc == nil {
		return ProcessInfo{}, fmt.Errorf("process %d not found", pid)
	}
	return ProcessInfo{
		PID:  proc.Pid(),
		PPID: proc.PPid(),
		Name: proc.Executable(),
	}, nil
}

// psLookupTimeout bounds a single ps invocation
const psLookupTimeout = 2 * time.Second

// PSProvider asks the ps command directly. It is independent of the process
// table library and serves as the fallback walk.
type PSProvider struct {
	lookPath func(file string) (string, error)
	output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewPSProvider creates a provider that shells out to ps
func NewPSProvider() *PSProvider {
	return &PSProvider{
		lookPath: exec.LookPath,
		output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

func (p *PSProvider) Name() string {
	return "ps"
}

func (p *PSProvider) Available() bool {
	if runtime.GOOS == "windows" {
		return false
	}
	_, err := p.lookPath("ps")
	return err == nil
}

func (p *PSProvider) Lookup(pid int) (ProcessInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), psLookupTimeout)
	defer cancel()

	out, err := p.output(ctx, "ps", "-o", "ppid=", "-o", "comm=", "-p", strconv.Itoa(pid))
	if err != nil {
		return ProcessInfo{}, fmt.Errorf("ps failed for pid %d: %w", pid, err)
	}
	return parsePSLine(pid, string(out))
}

// parsePSLine parses "<ppid> <comm>" as printed by ps with empty headers.
// The command name may itself contain spaces.
func parsePSLine(pid int, out string) (ProcessInfo, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) == 0 {
		return ProcessInfo{}, fmt.Errorf("process %d not found", pid)
	}

	ppid, err := strconv.Atoi(fields[0])
	if err != nil {
		return ProcessInfo{}, fmt.Errorf("unexpected ps output %q: %w", out, err)
	}

	return ProcessInfo{
		PID:  pid,
		PPID: ppid,
		Name: strings.Join(fields[1:], " "),
	}, nil
}
