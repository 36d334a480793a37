package history

import (
	"strconv"
	"strings"
	"time"
)

// ShellType represents a shell family with its own history file format
type ShellType int

const (
	Unknown ShellType = iota
	Zsh
	Bash
	Fish
	Tcsh
	Csh
	Pwsh
	PowerShell
)

var shellNames = map[ShellType]string{
	Unknown:    "unknown",
	Zsh:        "zsh",
	Bash:       "bash",
	Fish:       "fish",
	Tcsh:       "tcsh",
	Csh:        "csh",
	Pwsh:       "pwsh",
	PowerShell: "powershell",
}

// String returns the string representation of ShellType
func (s ShellType) String() string {
	if name, ok := shellNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseShellType maps a shell family name to its ShellType. Matching is exact
// apart from case; anything else yields Unknown.
func ParseShellType(name string) ShellType {
	name = strings.ToLower(strings.TrimSpace(name))
	for shell, shellName := range shellNames {
		if shell != Unknown && shellName == name {
			return shell
		}
	}
	return Unknown
}

// AllShells returns every known shell family in declaration order
func AllShells() []ShellType {
	return []ShellType{Zsh, Bash, Fish, Tcsh, Csh, Pwsh, PowerShell}
}

// MarshalJSON implements json.Marshaler
func (s ShellType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (s *ShellType) UnmarshalJSON(data []byte) error {
	str := string(data)
	// Remove quotes
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	*s = ParseShellType(str)
	return nil
}

// CommandRecord is one command line read from a shell's native history file.
// Timestamp and Duration are only filled by formats that carry them.
type CommandRecord struct {
	Command   string        `json:"command"`
	Timestamp time.Time     `json:"timestamp,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Parser converts raw history file content into records, oldest first
type Parser func(content string) []CommandRecord

// Entry is one row of shelly's own command log
type Entry struct {
	ID        string    `json:"-"`
	Command   string    `json:"command"`
	ExitCode  *int      `json:"exitCode"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStore persists the commands shelly itself executed
type HistoryStore interface {
	// Append adds one entry stamped with the current time
	Append(command string, exitCode *int) error

	// ReadAll returns every entry, oldest first. Read failures yield an empty slice.
	ReadAll() []Entry

	// Close releases the underlying resources
	Close() error
}

// SearchableStore is implemented by stores that can filter on their own
type SearchableStore interface {
	HistoryStore

	// Search returns entries whose command contains pattern, oldest first
	Search(pattern string) ([]Entry, error)
}

// Validate checks if the Entry has valid data
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Command) == "" {
		return &ValidationError{Field: "Command", Message: "Command cannot be empty"}
	}
	if e.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Message: "Timestamp cannot be zero"}
	}
	return nil
}

// Failed reports whether the entry recorded a nonzero exit code
func (e *Entry) Failed() bool {
	return e.ExitCode != nil && *e.ExitCode != 0
}

// ExitCodeString renders the exit code, or "n/a" for manually entered text
func (e *Entry) ExitCodeString() string {
	if e.ExitCode == nil {
		return "n/a"
	}
	return strconv.Itoa(*e.ExitCode)
}

// IntPtr is a small helper for building nullable exit codes
func IntPtr(v int) *int {
	return &v
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
