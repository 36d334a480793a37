package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HomeEnv relocates shelly's data directory
const HomeEnv = "SHELLY_HOME"

// Storage backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// AnalysisConfig configures the external analysis service
type AnalysisConfig struct {
	Enabled         bool   `json:"enabled"`
	Model           string `json:"model"`
	APIKeyEnv       string `json:"api_key_env"`
	MaxOutputLength int    `json:"max_output_length"`
	HistoryEntries  int    `json:"history_entries"`
	ContextLines    int    `json:"context_lines"`
	MaxSuggestions  int    `json:"max_suggestions"`
}

// Config represents the application configuration
type Config struct {
	ToolNames      []string       `json:"tool_names"`
	SelfMarkers    []string       `json:"self_markers"`
	OverrideEnv    string         `json:"override_env"`
	DebugEnv       string         `json:"debug_env"`
	TimeoutMs      int            `json:"timeout_ms"`
	MaxDepth       int            `json:"max_depth"`
	StorageBackend string         `json:"storage_backend"`
	HistoryPath    string         `json:"history_path"`
	RulesPath      string         `json:"rules_path"`
	LogPath        string         `json:"log_path"`
	BlockDangerous bool           `json:"block_dangerous"`
	UsePTY         bool           `json:"use_pty"`
	Analysis       AnalysisConfig `json:"analysis"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ToolNames:      []string{"shelly"},
		SelfMarkers:    []string{"SHELLY_DEBUG"},
		OverrideEnv:    "SHELL_OVERRIDE",
		DebugEnv:       "SHELLY_DEBUG",
		TimeoutMs:      15000,
		MaxDepth:       10,
		StorageBackend: BackendJSON,
		BlockDangerous: true,
		Analysis: AnalysisConfig{
			Enabled:         true,
			Model:           "gemini-2.5-flash",
			APIKeyEnv:       "GEMINI_API_KEY",
			MaxOutputLength: 8000,
			HistoryEntries:  20,
			ContextLines:    5,
			MaxSuggestions:  5,
		},
	}
}

// Dir returns shelly's data directory, $SHELLY_HOME or ~/.shelly
func Dir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".shelly"), nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigPath returns the path to the configuration file (ignoring errors)
func GetConfigPath() string {
	path, _ := ConfigPath()
	return path
}

// Load loads configuration from file or returns default if file doesn't exist
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(configPath)
}

// LoadFrom loads configuration from an explicit file. A missing file is
// created with defaults; an unreadable or malformed one yields defaults.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		// If we can't save, just return defaults
		_ = config.SaveTo(configPath)
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultConfig(), nil
	}

	// Fields absent from the file keep their defaults
	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultConfig(), nil
	}

	config.validateAndSetDefaults()

	return config, nil
}

// Save saves the configuration to the default file
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to an explicit file
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// validateAndSetDefaults ensures all configuration fields have valid values
func (c *Config) validateAndSetDefaults() {
	defaults := DefaultConfig()

	if len(c.ToolNames) == 0 {
		c.ToolNames = defaults.ToolNames
	}
	if c.OverrideEnv == "" {
		c.OverrideEnv = defaults.OverrideEnv
	}
	if c.DebugEnv == "" {
		c.DebugEnv = defaults.DebugEnv
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = defaults.TimeoutMs
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaults.MaxDepth
	}
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	if c.StorageBackend == "" {
		c.StorageBackend = defaults.StorageBackend
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = defaults.Analysis.Model
	}
	if c.Analysis.APIKeyEnv == "" {
		c.Analysis.APIKeyEnv = defaults.Analysis.APIKeyEnv
	}
	if c.Analysis.MaxOutputLength <= 0 {
		c.Analysis.MaxOutputLength = defaults.Analysis.MaxOutputLength
	}
	if c.Analysis.HistoryEntries <= 0 {
		c.Analysis.HistoryEntries = defaults.Analysis.HistoryEntries
	}
	if c.Analysis.ContextLines <= 0 {
		c.Analysis.ContextLines = defaults.Analysis.ContextLines
	}
	if c.Analysis.MaxSuggestions <= 0 {
		c.Analysis.MaxSuggestions = defaults.Analysis.MaxSuggestions
	}
}

// Timeout returns the command timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// StorePath returns the command log location for the configured backend
func (c *Config) StorePath() (string, error) {
	if c.HistoryPath != "" {
		return c.HistoryPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if c.StorageBackend == BackendSQLite {
		return filepath.Join(dir, "history.db"), nil
	}
	return filepath.Join(dir, "history.json"), nil
}

// RulesFile returns the user rules location
func (c *Config) RulesFile() (string, error) {
	if c.RulesPath != "" {
		return c.RulesPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rules.yaml"), nil
}

// LogFile returns the log file location
func (c *Config) LogFile() (string, error) {
	if c.LogPath != "" {
		return c.LogPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "shelly.log"), nil
}

// Global configuration instance
var globalConfig *Config

// SetGlobal sets the global configuration instance
func SetGlobal(config *Config) {
	globalConfig = config
}

// Global returns the global configuration instance
func Global() *Config {
	if globalConfig == nil {
		globalConfig = DefaultConfig()
	}
	return globalConfig
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if len(c.ToolNames) == 0 {
		return &ConfigValidationError{Field: "ToolNames", Message: "At least one tool name is required"}
	}
	for _, name := range c.ToolNames {
		if strings.TrimSpace(name) == "" {
			return &ConfigValidationError{Field: "ToolNames", Message: "Tool names cannot be blank"}
		}
	}
	if c.TimeoutMs <= 0 {
		return &ConfigValidationError{Field: "TimeoutMs", Message: "Timeout must be positive"}
	}
	if c.MaxDepth <= 0 {
		return &ConfigValidationError{Field: "MaxDepth", Message: "Max depth must be positive"}
	}
	if c.StorageBackend != BackendJSON && c.StorageBackend != BackendSQLite {
		return &ConfigValidationError{Field: "StorageBackend", Message: "Storage backend must be json or sqlite"}
	}
	if c.Analysis.MaxOutputLength < 0 {
		return &ConfigValidationError{Field: "Analysis.MaxOutputLength", Message: "Max output length cannot be negative"}
	}
	return nil
}

// ConfigValidationError represents a configuration validation error
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e *ConfigValidationError) Error() string {
	return "config." + e.Field + ": " + e.Message
}
