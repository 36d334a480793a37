package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValGrace/shelly/pkg/history"
)

// LastCommandVar carries the live last command from the shell function to
// the binary, bypassing history files that are only flushed on exit
const LastCommandVar = "SHELLY_LAST_CMD"

// Integrator implements ShellIntegrator interface
type Integrator struct {
	platform PlatformAbstraction
	toolName string
}

// NewIntegrator creates a new shell integrator for the named tool binary
func NewIntegrator(toolName string) *Integrator {
	return NewIntegratorFor(NewPlatformAbstraction(), toolName)
}

// NewIntegratorFor creates an integrator over an explicit platform
func NewIntegratorFor(platform PlatformAbstraction, toolName string) *Integrator {
	if toolName == "" {
		toolName = "shelly"
	}
	return &Integrator{platform: platform, toolName: toolName}
}

// SetupIntegration installs the shell function into the shell's rc file
func (i *Integrator) SetupIntegration(shell history.ShellType) error {
	script, err := i.GetIntegrationScript(shell)
	if err != nil {
		return fmt.Errorf("failed to get integration script: %w", err)
	}

	return i.installShellHook(shell, script)
}

// RemoveIntegration removes the shell function from the rc file
func (i *Integrator) RemoveIntegration(shell history.ShellType) error {
	return i.removeShellHook(shell)
}

// GetIntegrationScript returns the shell function definition for a shell
func (i *Integrator) GetIntegrationScript(shell history.ShellType) (string, error) {
	var script string
	switch shell {
	case history.Bash, history.Zsh:
		script = posixScript
	case history.Fish:
		script = fishScript
	case history.Pwsh, history.PowerShell:
		script = powerShellScript
	case history.Unknown:
		return "", fmt.Errorf("cannot get integration script for unknown shell type")
	default:
		return "", fmt.Errorf("unsupported shell type: %s", shell.String())
	}

	replacer := strings.NewReplacer("{{tool}}", i.toolName, "{{var}}", LastCommandVar)
	return replacer.Replace(script), nil
}

// IsIntegrationActive checks if integration is currently active
func (i *Integrator) IsIntegrationActive(shell history.ShellType) (bool, error) {
	configPath, err := i.platform.GetShellConfigPath(shell)
	if err != nil {
		return false, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return strings.Contains(string(content), i.getIntegrationMarker()), nil
}

// ConfigPath returns the rc file the integration is written to
func (i *Integrator) ConfigPath(shell history.ShellType) (string, error) {
	return i.platform.GetShellConfigPath(shell)
}

// The previous history entry is read with fc so that the command the user
// just ran is available even before the shell writes its history file.
const posixScript = `{{tool}}() {
    if [ $# -gt 0 ]; then
        command {{tool}} "$@"
        return
    fi
    local last_command
    last_command=$(fc -ln -2 -2 2>/dev/null | sed 's/^[[:space:]]*//')
    {{var}}="$last_command" command {{tool}}
}`

const fishScript = `function {{tool}}
    if test (count $argv) -gt 0
        command {{tool}} $argv
        return
    end
    set -lx {{var}} $history[1]
    command {{tool}}
end`

const powerShellScript = `function {{tool}} {
    $bin = Get-Command {{tool}} -CommandType Application | Select-Object -First 1
    if ($args.Count -gt 0) {
        & $bin @args
        return
    }
    $env:{{var}} = (Get-History -Count 1).CommandLine
    try { & $bin } finally { Remove-Item Env:{{var}} -ErrorAction SilentlyContinue }
}`

// installShellHook installs the integration script into the shell configuration
func (i *Integrator) installShellHook(shell history.ShellType, script string) error {
	configPath, err := i.platform.GetShellConfigPath(shell)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var existingContent []byte
	if _, err := os.Stat(configPath); err == nil {
		existingContent, err = os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read existing config: %w", err)
		}
	}

	marker := i.getIntegrationMarker()
	if strings.Contains(string(existingContent), marker) {
		return nil // Already installed
	}

	integrationBlock := fmt.Sprintf("\n%s\n%s\n%s\n",
		marker, script, i.getIntegrationEndMarker())

	newContent := append(existingContent, []byte(integrationBlock)...)

	return os.WriteFile(configPath, newContent, 0644)
}

// removeShellHook removes the integration script from shell configuration
func (i *Integrator) removeShellHook(shell history.ShellType) error {
	configPath, err := i.platform.GetShellConfigPath(shell)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Nothing to remove
		}
		return err
	}

	contentStr := string(content)
	startIdx := strings.Index(contentStr, i.getIntegrationMarker())
	if startIdx == -1 {
		return nil // Not installed
	}

	endMarker := i.getIntegrationEndMarker()
	endIdx := strings.Index(contentStr[startIdx:], endMarker)
	if endIdx == -1 {
		return fmt.Errorf("malformed integration block in config file")
	}

	endIdx += startIdx + len(endMarker)
	if endIdx < len(contentStr) && contentStr[endIdx] == '\n' {
		endIdx++
	}
	// Drop the blank line installShellHook put in front of the block
	if startIdx > 0 && contentStr[startIdx-1] == '\n' {
		startIdx--
	}
	newContent := contentStr[:startIdx] + contentStr[endIdx:]

	return os.WriteFile(configPath, []byte(newContent), 0644)
}

func (i *Integrator) getIntegrationMarker() string {
	return "# >>> " + i.toolName + " integration >>>"
}

func (i *Integrator) getIntegrationEndMarker() string {
	return "# <<< " + i.toolName + " integration <<<"
}
