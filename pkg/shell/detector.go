package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/pkg/history"
)

// DefaultOverrideVar names the variable that forces a shell family
const DefaultOverrideVar = "SHELL_OVERRIDE"

// DetectionSource records which detection step produced a result
type DetectionSource int

const (
	SourceNone DetectionSource = iota
	SourceOverride
	SourceProcessTree
	SourcePS
	SourceEnvironment
)

// String returns the string representation of DetectionSource
func (s DetectionSource) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceProcessTree:
		return "process-tree"
	case SourcePS:
		return "ps"
	case SourceEnvironment:
		return "environment"
	default:
		return "none"
	}
}

// Detection is a detected shell and how it was found
type Detection struct {
	Descriptor
	Source DetectionSource
}

// Detector implements ShellDetector
type Detector struct {
	env         Environment
	overrideVar string
	maxDepth    int
	startPid    int
	providers   []sourcedProvider
}

type sourcedProvider struct {
	provider AncestryProvider
	source   DetectionSource
}

// Option configures a Detector
type Option func(*Detector)

// WithEnvironment sets the environment the detector reads
func WithEnvironment(env Environment) Option {
	return func(d *Detector) { d.env = env }
}

// WithOverrideVar changes the variable consulted for an explicit shell
func WithOverrideVar(name string) Option {
	return func(d *Detector) {
		if name != "" {
			d.overrideVar = name
		}
	}
}

// WithMaxDepth bounds the process tree walks
func WithMaxDepth(depth int) Option {
	return func(d *Detector) {
		if depth > 0 {
			d.maxDepth = depth
		}
	}
}

// WithStartPID sets the process the walks start from
func WithStartPID(pid int) Option {
	return func(d *Detector) { d.startPid = pid }
}

// WithProviders replaces the primary and fallback ancestry providers. A nil
// provider disables that step.
func WithProviders(primary, fallback AncestryProvider) Option {
	return func(d *Detector) {
		d.providers = nil
		if primary != nil {
			d.providers = append(d.providers, sourcedProvider{primary, SourceProcessTree})
		}
		if fallback != nil {
			d.providers = append(d.providers, sourcedProvider{fallback, SourcePS})
		}
	}
}

// NewDetector creates a new shell detector
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		env:         OSEnvironment(),
		overrideVar: DefaultOverrideVar,
		maxDepth:    DefaultMaxDepth,
		startPid:    os.Getpid(),
		providers: []sourcedProvider{
			{NewLibraryProvider(), SourceProcessTree},
			{NewPSProvider(), SourcePS},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect resolves the user's shell. The override variable is authoritative:
// when it is set, an unrecognized value yields no shell rather than falling
// through to the other steps.
func (d *Detector) Detect() (Detection, bool) {
	if override := strings.TrimSpace(d.env.Getenv(d.overrideVar)); override != "" {
		desc, ok := Resolve(override)
		if !ok {
			logging.Debug("override %s=%q is not a known shell", d.overrideVar, override)
			return Detection{}, false
		}
		return Detection{Descriptor: desc, Source: SourceOverride}, true
	}

	for _, p := range d.providers {
		if det, ok := d.walk(p); ok {
			return det, true
		}
	}

	if desc, ok := d.fromShellVariable(); ok {
		return Detection{Descriptor: desc, Source: SourceEnvironment}, true
	}

	logging.Debug("no shell detected")
	return Detection{}, false
}

// DetectShell identifies the current shell type
func (d *Detector) DetectShell() (history.ShellType, error) {
	det, ok := d.Detect()
	if !ok {
		return history.Unknown, fmt.Errorf("unable to detect shell")
	}
	return det.Shell, nil
}

func (d *Detector) walk(p sourcedProvider) (det Detection, found bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Debug("%s walk panicked: %v", p.provider.Name(), r)
			det, found = Detection{}, false
		}
	}()

	if !p.provider.Available() {
		logging.Debug("%s provider unavailable", p.provider.Name())
		return Detection{}, false
	}

	desc, ok := NewWalker(p.provider).FindEnclosingShell(d.startPid, d.maxDepth)
	if !ok {
		return Detection{}, false
	}
	return Detection{Descriptor: desc, Source: p.source}, true
}

// fromShellVariable matches the basename of $SHELL exactly
func (d *Detector) fromShellVariable() (Descriptor, bool) {
	shellPath := strings.TrimSpace(d.env.Getenv("SHELL"))
	if shellPath == "" {
		return Descriptor{}, false
	}

	base := strings.ToLower(filepath.Base(filepath.ToSlash(shellPath)))
	if i := strings.LastIndex(base, "\\"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".exe")

	desc, ok := Resolve(base)
	if !ok {
		logging.Debug("SHELL=%q does not name a known shell", shellPath)
	}
	return desc, ok
}
