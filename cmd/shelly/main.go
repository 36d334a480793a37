package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ValGrace/shelly/internal/app"
	"github.com/ValGrace/shelly/internal/config"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/internal/ui"
	"github.com/ValGrace/shelly/pkg/shell"
)

var rootFlags struct {
	timeoutMs int
	pty       bool
	debug     bool
	noAnalyze bool
}

var (
	globalApp *app.Application
	rootCmd   = &cobra.Command{
		Use:   "shelly [command...]",
		Short: "Re-run and explain shell commands",
		Long: `shelly runs a command, or re-runs the previous command from your shell
history when called without arguments, and explains the outcome.

Everything after the first argument belongs to the command, so flags meant
for shelly must come first. Use -- to run a command that shares a name
with one of shelly's subcommands.`,
		Args:              cobra.ArbitraryArgs,
		PersistentPreRunE: initializeApp,
		RunE:              runRoot,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

// Commands that work without the history store or analyzer
var skipInit = map[string]bool{
	"help":       true,
	"version":    true,
	"alias":      true,
	"setup":      true,
	"remove":     true,
	"config":     true,
	"completion": true,
}

func init() {
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.PersistentFlags().IntVar(&rootFlags.timeoutMs, "timeout", 0, "Command timeout in milliseconds (default from config)")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.pty, "pty", false, "Run the command attached to a pseudo-terminal")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "Write debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.noAnalyze, "no-analyze", false, "Skip the analysis of the command's outcome")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logging.Error("%v", err)
	}
	cleanup()
	if err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// initializeApp loads configuration, sets up logging and builds the
// application for commands that need it
func initializeApp(cmd *cobra.Command, args []string) error {
	if skipInit[cmd.Name()] {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if rootFlags.pty {
		cfg.UsePTY = true
	}
	config.SetGlobal(cfg)

	debug := rootFlags.debug || shell.IsTruthy(os.Getenv(cfg.DebugEnv))
	app.SetupLogging(cfg, debug, cmd.ErrOrStderr())
	logging.Debug("shelly %s invoked with %q", cmd.Name(), args)

	printer := ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), !isTerminal(cmd.OutOrStdout()))

	opts := []app.Option{app.WithPrinter(printer)}
	if wd, err := os.Getwd(); err == nil {
		opts = append(opts, app.WithWorkingDir(wd))
	}

	application, err := app.New(cmd.Context(), cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	globalApp = application
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	opts := runOptions()
	if len(args) == 0 {
		return globalApp.RunLast(cmd.Context(), opts)
	}
	_, err := globalApp.Run(cmd.Context(), strings.Join(args, " "), opts)
	return err
}

func runOptions() app.RunOptions {
	opts := app.RunOptions{Analyze: !rootFlags.noAnalyze}
	if rootFlags.timeoutMs > 0 {
		opts.Timeout = time.Duration(rootFlags.timeoutMs) * time.Millisecond
	}
	return opts
}

// cleanup releases the history store and flushes logs
func cleanup() {
	if globalApp != nil {
		if err := globalApp.Close(); err != nil {
			logging.Error("shutdown error: %v", err)
		}
		globalApp = nil
	}
	_ = logging.Default().Sync()
}
