package app

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ValGrace/shelly/internal/analysis"
	"github.com/ValGrace/shelly/internal/config"
	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/executor"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/internal/rules"
	"github.com/ValGrace/shelly/internal/storage"
	"github.com/ValGrace/shelly/internal/ui"
	"github.com/ValGrace/shelly/pkg/history"
	"github.com/ValGrace/shelly/pkg/shell"
)

// CommandRunner executes one command line
type CommandRunner interface {
	Run(ctx context.Context, command string, timeout time.Duration) (*executor.ExecutionResult, error)
}

// ShellDetector resolves the user's shell
type ShellDetector interface {
	Detect() (shell.Detection, bool)
}

// CommandLister lists the executables available on PATH
type CommandLister func(ctx context.Context) ([]string, error)

// Selector lets the user pick a stored entry interactively
type Selector interface {
	SelectCommand(query string) (*history.Entry, error)
}

// Application wires detection, execution, storage, rules and analysis
// together for one CLI invocation
type Application struct {
	config    *config.Config
	env       shell.Environment
	platform  shell.PlatformAbstraction
	detector  ShellDetector
	resolver  *shell.Resolver
	runner    CommandRunner
	store     history.HistoryStore
	rules     *rules.Engine
	analyzer  analysis.Analyzer
	validator *executor.CommandValidator
	printer   *ui.Printer
	selector  Selector
	commands  CommandLister
	dir       string

	// analyzerSet records an explicit WithAnalyzer, including nil
	analyzerSet bool

	detectOnce sync.Once
	detection  shell.Detection
	detected   bool
}

// Option configures an Application
type Option func(*Application)

// WithEnvironment sets the environment used for detection and history lookup
func WithEnvironment(env shell.Environment) Option {
	return func(a *Application) { a.env = env }
}

// WithPlatform overrides the platform abstraction
func WithPlatform(platform shell.PlatformAbstraction) Option {
	return func(a *Application) { a.platform = platform }
}

// WithDetector overrides shell detection
func WithDetector(detector ShellDetector) Option {
	return func(a *Application) { a.detector = detector }
}

// WithRunner overrides command execution
func WithRunner(runner CommandRunner) Option {
	return func(a *Application) { a.runner = runner }
}

// WithStore overrides the history store
func WithStore(store history.HistoryStore) Option {
	return func(a *Application) { a.store = store }
}

// WithRules overrides the rules engine
func WithRules(engine *rules.Engine) Option {
	return func(a *Application) { a.rules = engine }
}

// WithAnalyzer sets the analyzer. A nil analyzer disables remote analysis.
func WithAnalyzer(analyzer analysis.Analyzer) Option {
	return func(a *Application) {
		a.analyzer = analyzer
		a.analyzerSet = true
	}
}

// WithPrinter sets where user-facing output goes
func WithPrinter(printer *ui.Printer) Option {
	return func(a *Application) { a.printer = printer }
}

// WithSelector overrides the interactive history browser
func WithSelector(selector Selector) Option {
	return func(a *Application) { a.selector = selector }
}

// WithCommandLister overrides PATH scanning
func WithCommandLister(lister CommandLister) Option {
	return func(a *Application) { a.commands = lister }
}

// WithWorkingDir sets the directory commands run in and stack-trace paths
// resolve against
func WithWorkingDir(dir string) Option {
	return func(a *Application) { a.dir = dir }
}

// New creates an application from configuration. Components not supplied
// through options are built from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError("invalid configuration", err)
	}

	a := &Application{config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.env == nil {
		a.env = shell.OSEnvironment()
	}
	if a.platform == nil {
		a.platform = shell.NewPlatformAbstraction()
	}
	if a.printer == nil {
		a.printer = ui.NewPrinter(os.Stdout, os.Stderr, true)
	}
	if a.detector == nil {
		a.detector = shell.NewDetector(
			shell.WithEnvironment(a.env),
			shell.WithOverrideVar(cfg.OverrideEnv),
			shell.WithMaxDepth(cfg.MaxDepth),
		)
	}
	a.resolver = shell.NewResolver(a.env, shell.SelfFilter{Names: cfg.ToolNames, Markers: cfg.SelfMarkers})
	a.validator = executor.NewCommandValidator()

	if a.store == nil {
		store, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	if a.rules == nil {
		engine, err := loadRules(cfg)
		if err != nil {
			return nil, err
		}
		a.rules = engine
	}

	if !a.analyzerSet {
		a.analyzer = a.buildAnalyzer(ctx)
	}

	if a.commands == nil {
		a.commands = func(ctx context.Context) ([]string, error) {
			return analysis.AvailableCommands(ctx, a.env.Getenv("PATH"), a.platform)
		}
	}

	return a, nil
}

func openStore(cfg *config.Config) (history.HistoryStore, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, errors.NewStorageError("failed to resolve history location", err)
	}
	store, err := storage.New(cfg.StorageBackend, path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open history store", err).
			WithContext("backend", cfg.StorageBackend).
			WithContext("path", path)
	}
	logging.Debug("using %s history store at %s", cfg.StorageBackend, path)
	return store, nil
}

// loadRules puts user rules ahead of the built-in ones
func loadRules(cfg *config.Config) (*rules.Engine, error) {
	path, err := cfg.RulesFile()
	if err != nil {
		return nil, errors.NewConfigError("failed to resolve rules location", err)
	}
	userRules, err := rules.Load(path)
	if err != nil {
		return nil, err
	}
	if len(userRules) > 0 {
		logging.Debug("loaded %d user rules from %s", len(userRules), path)
	}
	return rules.NewEngine(append(userRules, rules.Builtin()...)...), nil
}

func (a *Application) buildAnalyzer(ctx context.Context) analysis.Analyzer {
	opts := a.analysisOptions()
	if !a.config.Analysis.Enabled {
		logging.Debug("analysis disabled in configuration")
		return nil
	}

	key := a.env.Getenv(a.config.Analysis.APIKeyEnv)
	if key == "" {
		logging.Debug("%s not set, analysis unavailable", a.config.Analysis.APIKeyEnv)
		return nil
	}

	analyzer, err := analysis.NewGeminiAnalyzerWithKey(ctx, key, opts, analysis.NewSnippetExtractor(opts.ContextLines, a.dir))
	if err != nil {
		logging.Error("failed to create analyzer: %v", err)
		return nil
	}
	return analyzer
}

func (a *Application) analysisOptions() analysis.Options {
	c := a.config.Analysis
	return analysis.Options{
		Model:           c.Model,
		MaxOutputLength: c.MaxOutputLength,
		HistoryEntries:  c.HistoryEntries,
		ContextLines:    c.ContextLines,
		MaxSuggestions:  c.MaxSuggestions,
	}
}

// Detect resolves the user's shell once per application
func (a *Application) Detect() (shell.Detection, bool) {
	a.detectOnce.Do(func() {
		a.detection, a.detected = a.detector.Detect()
		if a.detected {
			logging.Debug("detected %s via %s", a.detection.Name(), a.detection.Source)
		}
	})
	return a.detection, a.detected
}

func (a *Application) commandRunner() CommandRunner {
	if a.runner != nil {
		return a.runner
	}

	opts := []executor.RunnerOption{
		executor.WithPlatform(a.platform, a.env),
		executor.WithPTY(a.config.UsePTY),
		executor.WithDir(a.dir),
	}
	if det, ok := a.Detect(); ok {
		opts = append(opts, executor.WithShell(det.Shell))
	}
	a.runner = executor.NewRunner(opts...)
	return a.runner
}

// Config returns the active configuration
func (a *Application) Config() *config.Config {
	return a.config
}

// Store returns the history store
func (a *Application) Store() history.HistoryStore {
	return a.store
}

// Printer returns the output printer
func (a *Application) Printer() *ui.Printer {
	return a.printer
}

// AnalysisAvailable reports whether an analyzer is configured
func (a *Application) AnalysisAvailable() bool {
	return a.analyzer != nil
}

// Close releases the store
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		return errors.NewStorageError("failed to close history store", err)
	}
	return nil
}

// SetupLogging installs the default logger: a file log at Info, or Debug
// with an extra stderr sink when debug is set. A log file that cannot be
// opened falls back to stderr.
func SetupLogging(cfg *config.Config, debug bool, stderr io.Writer) *logging.Logger {
	level := logging.InfoLevel
	if debug {
		level = logging.DebugLevel
	}

	var logger *logging.Logger
	path, err := cfg.LogFile()
	if err == nil {
		logger, err = logging.NewFileLogger(path, level)
	}
	if err != nil {
		logger = logging.New(stderr, logging.ErrorLevel)
		logger.Error("file logging unavailable: %v", err)
	}

	if debug {
		logger = logger.Tee(stderr, logging.DebugLevel)
	}

	logging.SetDefault(logger)
	return logger
}
