package shell

import (
	"fmt"
	"os"
	"strings"
)

// Environment gives read access to the variables and home directory that
// shell detection and history lookup depend on
type Environment interface {
	// Getenv returns the value of key, or "" when unset
	Getenv(key string) string

	// HomeDir returns the user's home directory
	HomeDir() (string, error)
}

// osEnvironment reads the live process environment
type osEnvironment struct{}

// OSEnvironment returns the process environment
func OSEnvironment() Environment {
	return osEnvironment{}
}

func (osEnvironment) Getenv(key string) string {
	return os.Getenv(key)
}

func (osEnvironment) HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return home, nil
}

// MapEnvironment is a fixed environment, mostly useful in tests and for
// evaluating history paths for a home directory other than the caller's
type MapEnvironment struct {
	Vars map[string]string
	Home string
}

func (m MapEnvironment) Getenv(key string) string {
	return m.Vars[key]
}

func (m MapEnvironment) HomeDir() (string, error) {
	if m.Home == "" {
		return "", fmt.Errorf("home directory not set")
	}
	return m.Home, nil
}

// IsTruthy reports whether an environment flag value means "on"
func IsTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
