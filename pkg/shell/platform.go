package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ValGrace/shelly/pkg/history"
)

// Platform represents the operating system platform
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformWindows
	PlatformLinux
	PlatformDarwin
	PlatformFreeBSD
)

// String returns the string representation of Platform
func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformLinux:
		return "linux"
	case PlatformDarwin:
		return "darwin"
	case PlatformFreeBSD:
		return "freebsd"
	default:
		return "unknown"
	}
}

// PlatformAbstraction provides platform-specific functionality
type PlatformAbstraction interface {
	// GetPlatform returns the current platform
	GetPlatform() Platform

	// GetDefaultShell returns the shell used when nothing was detected
	GetDefaultShell() history.ShellType

	// GetShellExecutableName returns the executable name for a shell
	GetShellExecutableName(shell history.ShellType) string

	// GetShellConfigPath returns the rc/profile file for a shell
	GetShellConfigPath(shell history.ShellType) (string, error)

	// GetEnvironmentVariableSeparator returns the PATH separator for this platform
	GetEnvironmentVariableSeparator() string

	// GetHomeDirectory returns the user's home directory
	GetHomeDirectory() (string, error)

	// IsExecutable checks if a file is executable on this platform
	IsExecutable(path string) bool
}

// platformAbstraction implements PlatformAbstraction
type platformAbstraction struct {
	platform Platform
	env      Environment
}

// NewPlatformAbstraction creates a new platform abstraction
func NewPlatformAbstraction() PlatformAbstraction {
	return &platformAbstraction{
		platform: detectPlatform(),
		env:      OSEnvironment(),
	}
}

// NewPlatformAbstractionFor creates a platform abstraction for an explicit
// platform and environment
func NewPlatformAbstractionFor(platform Platform, env Environment) PlatformAbstraction {
	return &platformAbstraction{platform: platform, env: env}
}

// detectPlatform detects the current platform
func detectPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	case "freebsd":
		return PlatformFreeBSD
	default:
		return PlatformUnknown
	}
}

// GetPlatform returns the current platform
func (p *platformAbstraction) GetPlatform() Platform {
	return p.platform
}

// GetDefaultShell returns the default shell for this platform
func (p *platformAbstraction) GetDefaultShell() history.ShellType {
	switch p.platform {
	case PlatformWindows:
		return history.PowerShell
	case PlatformDarwin:
		// macOS switched to Zsh as default in Catalina
		return history.Zsh
	default:
		return history.Bash
	}
}

// GetShellExecutableName returns the executable name for a shell
func (p *platformAbstraction) GetShellExecutableName(shell history.ShellType) string {
	name := ""
	switch shell {
	case history.Unknown:
		return ""
	case history.PowerShell:
		if p.platform != PlatformWindows {
			// Only PowerShell Core exists off Windows
			return "pwsh"
		}
		name = "powershell"
	default:
		name = shell.String()
	}

	if p.platform == PlatformWindows {
		return name + ".exe"
	}
	return name
}

// GetShellConfigPath returns the configuration file path for a shell
func (p *platformAbstraction) GetShellConfigPath(shell history.ShellType) (string, error) {
	homeDir, err := p.GetHomeDirectory()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	switch shell {
	case history.PowerShell, history.Pwsh:
		if p.platform == PlatformWindows {
			folder := "PowerShell"
			if shell == history.PowerShell {
				folder = "WindowsPowerShell"
			}
			return filepath.Join(homeDir, "Documents", folder, "Microsoft.PowerShell_profile.ps1"), nil
		}
		return filepath.Join(p.xdgConfigHome(homeDir), "powershell", "Microsoft.PowerShell_profile.ps1"), nil

	case history.Bash:
		return filepath.Join(homeDir, ".bashrc"), nil

	case history.Zsh:
		if zdot := p.env.Getenv("ZDOTDIR"); zdot != "" {
			return filepath.Join(zdot, ".zshrc"), nil
		}
		return filepath.Join(homeDir, ".zshrc"), nil

	case history.Fish:
		return filepath.Join(p.xdgConfigHome(homeDir), "fish", "config.fish"), nil

	case history.Tcsh:
		return filepath.Join(homeDir, ".tcshrc"), nil

	case history.Csh:
		return filepath.Join(homeDir, ".cshrc"), nil

	default:
		return "", fmt.Errorf("unsupported shell type: %s", shell.String())
	}
}

func (p *platformAbstraction) xdgConfigHome(homeDir string) string {
	if dir := p.env.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir, ".config")
}

// GetEnvironmentVariableSeparator returns the PATH separator for this platform
func (p *platformAbstraction) GetEnvironmentVariableSeparator() string {
	if p.platform == PlatformWindows {
		return ";"
	}
	return ":"
}

// GetHomeDirectory returns the user's home directory
func (p *platformAbstraction) GetHomeDirectory() (string, error) {
	return p.env.HomeDir()
}

// IsExecutable checks if a file is executable on this platform
func (p *platformAbstraction) IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	if p.platform == PlatformWindows {
		// On Windows, check file extension
		ext := strings.ToLower(filepath.Ext(path))
		for _, execExt := range p.executableExtensions() {
			if ext == execExt {
				return true
			}
		}
		return false
	}

	// On Unix-like systems, check execute permission
	return info.Mode()&0111 != 0
}

func (p *platformAbstraction) executableExtensions() []string {
	if pathExt := p.env.Getenv("PATHEXT"); pathExt != "" {
		var exts []string
		for _, ext := range strings.Split(pathExt, ";") {
			if ext = strings.TrimSpace(ext); ext != "" {
				exts = append(exts, strings.ToLower(ext))
			}
		}
		return exts
	}
	return []string{".exe", ".bat", ".cmd", ".com", ".ps1"}
}
