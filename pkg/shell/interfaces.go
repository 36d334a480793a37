package shell

import "github.com/ValGrace/shelly/pkg/history"

// ShellDetector identifies the current shell environment
type ShellDetector interface {
	// Detect returns the enclosing shell and the step that found it
	Detect() (Detection, bool)

	// DetectShell identifies the current shell type
	DetectShell() (history.ShellType, error)
}

// LastCommandResolver reads the last meaningful command from shell history
type LastCommandResolver interface {
	// LastCommand returns the most recent non-self command not containing exclude
	LastCommand(desc Descriptor, exclude string) (string, bool)

	// Recent returns up to n surviving commands, most recent first
	Recent(desc Descriptor, n int) []string
}

// ShellIntegrator handles installing the shelly shell function
type ShellIntegrator interface {
	// SetupIntegration writes the shell function into the shell's rc file
	SetupIntegration(shell history.ShellType) error

	// RemoveIntegration removes the shell function
	RemoveIntegration(shell history.ShellType) error

	// GetIntegrationScript returns the shell function source
	GetIntegrationScript(shell history.ShellType) (string, error)

	// IsIntegrationActive checks if integration is currently active
	IsIntegrationActive(shell history.ShellType) (bool, error)
}

var (
	_ ShellDetector       = (*Detector)(nil)
	_ LastCommandResolver = (*Resolver)(nil)
	_ ShellIntegrator     = (*Integrator)(nil)
)
