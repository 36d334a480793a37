package executor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ValGrace/shelly/internal/errors"
)

// SecurityPolicy defines which commands may be re-executed from shell history
type SecurityPolicy struct {
	BlacklistedCommands []string
	BlacklistedPatterns []*regexp.Regexp
	MaxCommandLength    int
}

// DefaultSecurityPolicy returns a security policy with sensible defaults
func DefaultSecurityPolicy() *SecurityPolicy {
	return &SecurityPolicy{
		BlacklistedCommands: []string{
			"rm -rf /",
			"rm -rf /*",
			"rm -rf ~",
			"del /s /q C:\\",
			"format C:",
			"mkfs",
		},
		BlacklistedPatterns: compileBlacklistPatterns(),
		MaxCommandLength:    10000,
	}
}

// compileBlacklistPatterns returns compiled regex patterns for blacklisted commands
func compileBlacklistPatterns() []*regexp.Regexp {
	patterns := []string{
		`^(sudo\s+)?rm\s+-[rRf]{2,}\s+/\s*$`,
		`^(sudo\s+)?rm\s+-[rRf]{2,}\s+/\*`,
		`^(sudo\s+)?rm\s+-[rRf]{2,}\s+~/?\s*$`,
		`(?i)^del\s+/s\s+/q\s+c:\\`,
		`(?i)^format\s+c:`,
		`^(sudo\s+)?dd\s+.*of=/dev/(sd|nvme|hd|disk)`,
		`^(sudo\s+)?mkfs(\.|\s)`,
		`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`,
		`>\s*/dev/sd[a-z]`,
		`curl.*\|\s*(sudo\s+)?(ba)?sh`,
		`wget.*\|\s*(sudo\s+)?(ba)?sh`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		if re, err := regexp.Compile(pattern); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

// ValidateWithPolicy validates a command against a security policy
func (p *SecurityPolicy) ValidateWithPolicy(command string) error {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return errors.NewValidationError("command cannot be empty", nil)
	}

	if p.MaxCommandLength > 0 && len(command) > p.MaxCommandLength {
		return errors.NewValidationError(
			fmt.Sprintf("command exceeds maximum length of %d characters", p.MaxCommandLength),
			nil,
		)
	}

	for _, blacklisted := range p.BlacklistedCommands {
		if trimmed == blacklisted {
			return errors.NewValidationError(
				fmt.Sprintf("command is blacklisted: %s", trimmed),
				nil,
			).WithContext("command", command).WithContext("reason", "blacklisted")
		}
	}

	for _, pattern := range p.BlacklistedPatterns {
		if pattern.MatchString(trimmed) {
			return errors.NewValidationError(
				fmt.Sprintf("command matches blacklisted pattern: %s", trimmed),
				nil,
			).WithContext("command", command).WithContext("reason", "blacklisted_pattern")
		}
	}

	return nil
}

// IsCommandSafe performs basic safety checks on a command
func IsCommandSafe(command string) bool {
	return DefaultSecurityPolicy().ValidateWithPolicy(command) == nil
}

// CommandValidator guards commands replayed from shell history
type CommandValidator struct {
	policy *SecurityPolicy
}

// NewCommandValidator creates a new command validator with default policy
func NewCommandValidator() *CommandValidator {
	return &CommandValidator{
		policy: DefaultSecurityPolicy(),
	}
}

// NewCommandValidatorWithPolicy creates a validator with a custom policy
func NewCommandValidatorWithPolicy(policy *SecurityPolicy) *CommandValidator {
	return &CommandValidator{
		policy: policy,
	}
}

// Validate validates a command against the security policy
func (v *CommandValidator) Validate(command string) error {
	return v.policy.ValidateWithPolicy(command)
}

// GetPolicy returns the current security policy
func (v *CommandValidator) GetPolicy() *SecurityPolicy {
	return v.policy
}

// AddBlacklistedCommand adds a command to the blacklist
func (v *CommandValidator) AddBlacklistedCommand(command string) {
	v.policy.BlacklistedCommands = append(v.policy.BlacklistedCommands, command)
}

// IsBlacklisted checks if a command is blacklisted
func (v *CommandValidator) IsBlacklisted(command string) bool {
	trimmed := strings.TrimSpace(command)
	for _, blacklisted := range v.policy.BlacklistedCommands {
		if trimmed == blacklisted {
			return true
		}
	}

	for _, pattern := range v.policy.BlacklistedPatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}

	return false
}
