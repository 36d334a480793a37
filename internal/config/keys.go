package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type field struct {
	get func(c *Config) string
	set func(c *Config, value string) error
}

func stringField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, value string) error {
			*ptr(c) = value
			return nil
		},
	}
}

func intField(ptr func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid number %q", value)
			}
			*ptr(c) = n
			return nil
		},
	}
}

func boolField(ptr func(c *Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*ptr(c)) },
		set: func(c *Config, value string) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", value)
			}
			*ptr(c) = b
			return nil
		},
	}
}

func listField(ptr func(c *Config) *[]string) field {
	return field{
		get: func(c *Config) string { return strings.Join(*ptr(c), ",") },
		set: func(c *Config, value string) error {
			var items []string
			for _, item := range strings.Split(value, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			*ptr(c) = items
			return nil
		},
	}
}

var fields = map[string]field{
	"tool_names":      listField(func(c *Config) *[]string { return &c.ToolNames }),
	"self_markers":    listField(func(c *Config) *[]string { return &c.SelfMarkers }),
	"override_env":    stringField(func(c *Config) *string { return &c.OverrideEnv }),
	"debug_env":       stringField(func(c *Config) *string { return &c.DebugEnv }),
	"timeout_ms":      intField(func(c *Config) *int { return &c.TimeoutMs }),
	"max_depth":       intField(func(c *Config) *int { return &c.MaxDepth }),
	"storage_backend": stringField(func(c *Config) *string { return &c.StorageBackend }),
	"history_path":    stringField(func(c *Config) *string { return &c.HistoryPath }),
	"rules_path":      stringField(func(c *Config) *string { return &c.RulesPath }),
	"log_path":        stringField(func(c *Config) *string { return &c.LogPath }),
	"block_dangerous": boolField(func(c *Config) *bool { return &c.BlockDangerous }),
	"use_pty":         boolField(func(c *Config) *bool { return &c.UsePTY }),

	"analysis.enabled":           boolField(func(c *Config) *bool { return &c.Analysis.Enabled }),
	"analysis.model":             stringField(func(c *Config) *string { return &c.Analysis.Model }),
	"analysis.api_key_env":       stringField(func(c *Config) *string { return &c.Analysis.APIKeyEnv }),
	"analysis.max_output_length": intField(func(c *Config) *int { return &c.Analysis.MaxOutputLength }),
	"analysis.history_entries":   intField(func(c *Config) *int { return &c.Analysis.HistoryEntries }),
	"analysis.context_lines":     intField(func(c *Config) *int { return &c.Analysis.ContextLines }),
	"analysis.max_suggestions":   intField(func(c *Config) *int { return &c.Analysis.MaxSuggestions }),
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", "_"))
}

// Keys lists every settable configuration key
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a configuration key as text
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return f.get(c), nil
}

// Set parses and assigns a configuration key, then validates the result.
// The configuration is left unchanged when validation fails.
func (c *Config) Set(key, value string) error {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	updated := c.clone()
	if err := f.set(updated, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	updated.StorageBackend = strings.ToLower(updated.StorageBackend)
	if err := updated.Validate(); err != nil {
		return err
	}

	*c = *updated
	return nil
}

func (c *Config) clone() *Config {
	cp := *c
	cp.ToolNames = append([]string(nil), c.ToolNames...)
	cp.SelfMarkers = append([]string(nil), c.SelfMarkers...)
	return &cp
}
