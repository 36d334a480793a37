package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ValGrace/shelly/internal/config"
	"github.com/ValGrace/shelly/pkg/history"
	"github.com/ValGrace/shelly/pkg/shell"
)

var aliasCmd = &cobra.Command{
	Use:   "alias [shell]",
	Short: "Print the shell function for your shell",
	Long: `Print the shell function that passes the command you just ran to shelly.
Add it to your shell's startup file, or run "shelly setup" to do that for
you. The shell is detected when not given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAlias,
}

var setupCmd = &cobra.Command{
	Use:   "setup [shell]",
	Short: "Install the shell function in your shell's startup file",
	Long: `Install the shelly shell function into the startup file of your shell.
Running setup again is harmless; an existing installation is left as is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetup,
}

var removeCmd = &cobra.Command{
	Use:   "remove [shell]",
	Short: "Remove the shell function from your shell's startup file",
	Long: `Remove the shelly shell function from the startup file of your shell.
Recorded history is kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(aliasCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(removeCmd)
}

func runAlias(cmd *cobra.Command, args []string) error {
	integrator, shellType, err := integrationTarget(args)
	if err != nil {
		return err
	}

	script, err := integrator.GetIntegrationScript(shellType)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), script)
	return nil
}

func runSetup(cmd *cobra.Command, args []string) error {
	integrator, shellType, err := integrationTarget(args)
	if err != nil {
		return err
	}

	path, err := integrator.ConfigPath(shellType)
	if err != nil {
		return err
	}

	active, err := integrator.IsIntegrationActive(shellType)
	if err != nil {
		return fmt.Errorf("failed to check existing integration: %w", err)
	}
	if active {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ shelly is already set up for %s in %s\n", shellType, path)
		return nil
	}

	if err := integrator.SetupIntegration(shellType); err != nil {
		return fmt.Errorf("failed to set up %s integration: %w", shellType, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Installed shelly for %s in %s\n", shellType, path)
	fmt.Fprintln(cmd.OutOrStdout(), "Restart your shell or source that file to start using it.")
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	integrator, shellType, err := integrationTarget(args)
	if err != nil {
		return err
	}

	path, err := integrator.ConfigPath(shellType)
	if err != nil {
		return err
	}

	active, err := integrator.IsIntegrationActive(shellType)
	if err != nil {
		return fmt.Errorf("failed to check existing integration: %w", err)
	}
	if !active {
		fmt.Fprintf(cmd.OutOrStdout(), "shelly is not set up for %s\n", shellType)
		return nil
	}

	if err := integrator.RemoveIntegration(shellType); err != nil {
		return fmt.Errorf("failed to remove %s integration: %w", shellType, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed shelly from %s\n", path)
	return nil
}

// integrationTarget resolves the shell named in args, or detects it
func integrationTarget(args []string) (*shell.Integrator, history.ShellType, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, history.Unknown, fmt.Errorf("failed to load configuration: %w", err)
	}
	integrator := shell.NewIntegrator(cfg.ToolNames[0])

	if len(args) == 1 {
		shellType := history.ParseShellType(args[0])
		if shellType == history.Unknown {
			return nil, history.Unknown, fmt.Errorf("unknown shell %q, expected one of: %s", args[0], supportedShells())
		}
		return integrator, shellType, nil
	}

	detector := shell.NewDetector(
		shell.WithOverrideVar(cfg.OverrideEnv),
		shell.WithMaxDepth(cfg.MaxDepth),
	)
	shellType, err := detector.DetectShell()
	if err != nil {
		return nil, history.Unknown, fmt.Errorf("%w; name the shell explicitly, one of: %s", err, supportedShells())
	}
	return integrator, shellType, nil
}

func supportedShells() string {
	return "bash, zsh, fish, pwsh, powershell"
}
