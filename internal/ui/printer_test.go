package ui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValGrace/shelly/internal/executor"
	"github.com/ValGrace/shelly/internal/rules"
	"github.com/ValGrace/shelly/pkg/history"
)

func newTestPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut, true), &out, &errOut
}

func TestPrinter_Result(t *testing.T) {
	tests := []struct {
		name   string
		result *executor.ExecutionResult
		want   []string
	}{
		{
			name:   "success",
			result: &executor.ExecutionResult{Stdout: "hello\n"},
			want:   []string{"Command succeeded", "hello"},
		},
		{
			name:   "failure",
			result: &executor.ExecutionResult{Stderr: "boom", ExitCode: 2},
			want:   []string{"Command failed with exit code 2", "boom"},
		},
		{
			name:   "timeout",
			result: &executor.ExecutionResult{Stderr: "partial", ExitCode: 1, TimedOut: true, Duration: 1500 * time.Millisecond},
			want:   []string{"Command timed out after 1.5s", "partial"},
		},
		{
			name:   "truncated",
			result: &executor.ExecutionResult{Stdout: "x", Truncated: true},
			want:   []string{"(output truncated)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out, _ := newTestPrinter()
			p.Result(tt.result)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestPrinter_Suggestion(t *testing.T) {
	p, out, _ := newTestPrinter()
	p.Suggestion(rules.Suggestion{Rule: "sudo_permission_denied", Command: "sudo make install"})
	assert.Equal(t, "Suggestion: sudo make install (sudo_permission_denied)\n", out.String())
}

func TestPrinter_Corrections(t *testing.T) {
	p, out, _ := newTestPrinter()
	p.Corrections("gti", []string{"git", "gist"})
	assert.Contains(t, out.String(), `instead of "gti"?`)
	assert.Contains(t, out.String(), "  git\n")
	assert.Contains(t, out.String(), "  gist\n")

	out.Reset()
	p.Corrections("zzz", nil)
	assert.Equal(t, "No similar commands found for \"zzz\"\n", out.String())
}

func TestPrinter_Analysis(t *testing.T) {
	p, out, _ := newTestPrinter()
	p.Analysis("## Cause\n\nThe module `express` is missing.")

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Analysis\n"))
	assert.Contains(t, text, "Cause")
	assert.Contains(t, text, "express")
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestPrinter_Entries(t *testing.T) {
	p, out, _ := newTestPrinter()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.Entries([]history.Entry{
		{Command: "make", ExitCode: history.IntPtr(2), Timestamp: ts},
		{Command: "pasted error", Timestamp: ts},
	})

	text := out.String()
	assert.Contains(t, text, "TIME")
	assert.Contains(t, text, "make")
	assert.Contains(t, text, "n/a")
	assert.Contains(t, text, "2 entries")

	out.Reset()
	p.Entries(nil)
	assert.Equal(t, "No history entries found.\n", out.String())
}

func TestPrinter_EntriesJSON(t *testing.T) {
	p, out, _ := newTestPrinter()
	require.NoError(t, p.EntriesJSON(nil))
	assert.Equal(t, "[]\n", out.String())

	out.Reset()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, p.EntriesJSON([]history.Entry{{ID: "x", Command: "ls", Timestamp: ts}}))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "ls", decoded[0]["command"])
	assert.Nil(t, decoded[0]["exitCode"])
	assert.NotContains(t, decoded[0], "id")
}

func TestPrinter_Warn(t *testing.T) {
	p, out, errOut := newTestPrinter()
	p.Warn("no API key in %s", "GEMINI_API_KEY")
	assert.Empty(t, out.String())
	assert.Equal(t, "Warning: no API key in GEMINI_API_KEY\n", errOut.String())
}
