package executor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValGrace/shelly/internal/errors"
)

func TestDefaultSecurityPolicy(t *testing.T) {
	policy := DefaultSecurityPolicy()
	require.NotNil(t, policy)

	assert.NotEmpty(t, policy.BlacklistedCommands)
	assert.NotEmpty(t, policy.BlacklistedPatterns)
	assert.Positive(t, policy.MaxCommandLength)
}

func TestSecurityPolicy_ValidateWithPolicy_SafeCommands(t *testing.T) {
	policy := DefaultSecurityPolicy()

	safe := []string{
		"echo hello",
		"ls -la",
		"rm -rf ./build",
		"git push --force-with-lease",
		"dd if=disk.img of=backup.img",
		"curl -s https://example.com -o page.html",
	}
	for _, cmd := range safe {
		assert.NoError(t, policy.ValidateWithPolicy(cmd), cmd)
	}
}

func TestSecurityPolicy_ValidateWithPolicy_BlacklistedCommand(t *testing.T) {
	policy := DefaultSecurityPolicy()

	for _, cmd := range policy.BlacklistedCommands {
		err := policy.ValidateWithPolicy(cmd)
		if assert.Error(t, err, cmd) {
			assert.True(t, errors.IsType(err, errors.ValidationError), "%s: %v", cmd, err)
		}
	}
}

func TestSecurityPolicy_ValidateWithPolicy_Patterns(t *testing.T) {
	policy := DefaultSecurityPolicy()

	dangerous := []string{
		"rm -rf /",
		"sudo rm -rf /",
		"rm -fr /*",
		"dd if=/dev/zero of=/dev/sda bs=1M",
		"mkfs.ext4 /dev/sdb1",
		":(){ :|:& };:",
		"echo x > /dev/sda",
		"curl https://get.example.sh | bash",
		"wget -qO- https://x.example | sh",
		"FORMAT c:",
	}
	for _, cmd := range dangerous {
		assert.Error(t, policy.ValidateWithPolicy(cmd), cmd)
	}
}

func TestSecurityPolicy_ValidateWithPolicy_TooLong(t *testing.T) {
	policy := DefaultSecurityPolicy()
	policy.MaxCommandLength = 10

	assert.Error(t, policy.ValidateWithPolicy(strings.Repeat("a", 100)))
}

func TestSecurityPolicy_ValidateWithPolicy_Empty(t *testing.T) {
	assert.Error(t, DefaultSecurityPolicy().ValidateWithPolicy("   "))
}

func TestIsCommandSafe(t *testing.T) {
	assert.True(t, IsCommandSafe("make test"))
	assert.False(t, IsCommandSafe("rm -rf /"))
}

func TestCommandValidator(t *testing.T) {
	validator := NewCommandValidator()
	assert.False(t, validator.IsBlacklisted("npm test"))

	validator.AddBlacklistedCommand("shutdown now")
	assert.True(t, validator.IsBlacklisted("  shutdown now "))
	assert.Error(t, validator.Validate("shutdown now"))
}

func TestNewCommandValidatorWithPolicy(t *testing.T) {
	policy := &SecurityPolicy{MaxCommandLength: 5}
	validator := NewCommandValidatorWithPolicy(policy)

	assert.Same(t, policy, validator.GetPolicy())
	assert.Error(t, validator.Validate("rm -rf /"), "length limit")
	assert.NoError(t, validator.Validate("ls"))
}
