package history

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

func commands(records []CommandRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Command)
	}
	return out
}

func TestParseZsh(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "extended entries",
			content:  ": 100:0;ls\n: 101:0;mytool\n: 102:0;git status\n",
			expected: []string{"ls", "mytool", "git status"},
		},
		{
			name:     "huge timestamp and duration",
			content:  ": 99999999999999999999999:88888888888888888888;  echo hi  \n",
			expected: []string{"echo hi"},
		},
		{
			name:     "spaces after colon",
			content:  ":   1700000000:3;make test\n",
			expected: []string{"make test"},
		},
		{
			name:     "semicolons and quotes kept",
			content:  `: 1:0;echo "a;b" ; echo 'c'` + "\n",
			expected: []string{`echo "a;b" ; echo 'c'`},
		},
		{
			name:     "plain lines kept as fallback",
			content:  "ls -la\n: 1:0;pwd\ncontinued line\\\n",
			expected: []string{"ls -la", "pwd", `continued line\`},
		},
		{
			name:     "bare control lines dropped",
			content:  ":\n: not an entry\n: 5:0;whoami\n",
			expected: []string{"whoami"},
		},
		{
			name:     "crlf endings",
			content:  ": 1:0;ls\r\n: 2:0;pwd\r\n",
			expected: []string{"ls", "pwd"},
		},
		{
			name:     "empty file",
			content:  "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := commands(ParseZsh(tt.content))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseZsh() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseZsh_Metadata(t *testing.T) {
	records := ParseZsh(": 1700000000:7;sleep 7\n")
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if !records[0].Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("Unexpected timestamp %v", records[0].Timestamp)
	}
	if records[0].Duration != 7*time.Second {
		t.Errorf("Expected duration 7s, got %v", records[0].Duration)
	}
}

func TestParseFlat(t *testing.T) {
	lines := []string{"ls", "  cd /tmp  ", "echo \"x; y\"", "Get-ChildItem -Recurse"}
	content := strings.Join(lines, "\n") + "\n\n   \n"

	records := ParseFlat(content)
	if len(records) != len(lines) {
		t.Fatalf("Expected %d records, got %d", len(lines), len(records))
	}
	for i, line := range lines {
		if records[i].Command != strings.TrimSpace(line) {
			t.Errorf("Record %d: expected %q, got %q", i, strings.TrimSpace(line), records[i].Command)
		}
	}
}

func TestParseFlat_ManyLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&b, "cmd-%d --flag\n", i)
	}

	records := ParseFlat(b.String())
	if len(records) != 500 {
		t.Fatalf("Expected 500 records, got %d", len(records))
	}
	if records[0].Command != "cmd-0 --flag" || records[499].Command != "cmd-499 --flag" {
		t.Errorf("Unexpected boundary records %q, %q", records[0].Command, records[499].Command)
	}
}

func TestParseFish(t *testing.T) {
	content := `- cmd: ls -la
  when: 1700000000
- cmd: git commit -m "fix: thing"
  when: 1700000100
  paths:
    - src/main.go
- cmd:   echo spaced
`
	records := ParseFish(content)
	expected := []string{"ls -la", `git commit -m "fix: thing"`, "echo spaced"}
	if got := commands(records); !reflect.DeepEqual(got, expected) {
		t.Fatalf("ParseFish() = %q, want %q", got, expected)
	}

	if !records[0].Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("Unexpected timestamp %v", records[0].Timestamp)
	}
	if !records[1].Timestamp.Equal(time.Unix(1700000100, 0)) {
		t.Errorf("Unexpected timestamp %v", records[1].Timestamp)
	}
	if !records[2].Timestamp.IsZero() {
		t.Errorf("Expected no timestamp without a when line, got %v", records[2].Timestamp)
	}
}

func TestParseFish_WhenBeforeAnyCommand(t *testing.T) {
	got := commands(ParseFish("  when: 12\n- cmd: pwd\n"))
	if !reflect.DeepEqual(got, []string{"pwd"}) {
		t.Errorf("ParseFish() = %q, want [pwd]", got)
	}
}
