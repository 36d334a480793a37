package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ValGrace/shelly/internal/config"
)

var configFlags struct {
	get      string
	set      string
	reset    bool
	showPath bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage shelly configuration",
	Long: `View and modify shelly configuration settings.
Without flags every setting is listed.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVar(&configFlags.get, "get", "", "Get configuration value (e.g., 'timeout_ms')")
	configCmd.Flags().StringVar(&configFlags.set, "set", "", "Set configuration value (format: 'key=value')")
	configCmd.Flags().BoolVar(&configFlags.reset, "reset", false, "Reset configuration to defaults")
	configCmd.Flags().BoolVar(&configFlags.showPath, "path", false, "Show configuration file path")

	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if configFlags.showPath {
		fmt.Fprintf(out, "Configuration file: %s\n", config.GetConfigPath())
		return nil
	}

	if configFlags.reset {
		if err := config.DefaultConfig().Save(); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		fmt.Fprintln(out, "✓ Configuration reset to defaults")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch {
	case configFlags.get != "":
		value, err := cfg.Get(configFlags.get)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, value)
		return nil

	case configFlags.set != "":
		return setConfigValue(cmd, cfg, configFlags.set)
	}

	return listConfig(cmd, cfg)
}

func setConfigValue(cmd *cobra.Command, cfg *config.Config, keyValue string) error {
	key, value, ok := strings.Cut(keyValue, "=")
	if !ok {
		return fmt.Errorf("invalid format, use: key=value")
	}
	key = strings.TrimSpace(key)

	if err := cfg.Set(key, value); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	current, _ := cfg.Get(key)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration updated: %s = %s\n", key, current)
	return nil
}

func listConfig(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== shelly configuration ===")

	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(default)"
		}
		fmt.Fprintf(out, "%-28s %s\n", key, value)
	}

	fmt.Fprintf(out, "\nConfiguration file: %s\n", config.GetConfigPath())
	return nil
}
