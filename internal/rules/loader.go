package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ValGrace/shelly/internal/errors"
)

// File is the on-disk layout of a user rules file
type File struct {
	Version int    `yaml:"version"`
	Rules   []Definition `yaml:"rules"`
}

// Definition declares a user rule. Every condition that is set must hold; the
// replacement may reference the original command as {command}.
type Definition struct {
	Name     string `yaml:"name"`
	Command  string `yaml:"command,omitempty"`
	Output   string `yaml:"output,omitempty"`
	ExitCode *int   `yaml:"exit_code,omitempty"`
	Replace  string `yaml:"replace"`
}

// Load reads user rules from path. A missing file yields no rules.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewConfigError("failed to read rules file", err).WithContext("path", path)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, errors.NewConfigError("invalid rules file", err).WithContext("path", path)
	}
	return rules, nil
}

// Parse compiles rules from YAML
func Parse(data []byte) ([]Rule, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	out := make([]Rule, 0, len(f.Rules))
	seen := make(map[string]bool)
	for i, def := range f.Rules {
		rule, err := def.compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if seen[rule.name] {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i+1, rule.name)
		}
		seen[rule.name] = true
		out = append(out, rule)
	}
	return out, nil
}

func (s Definition) compile() (*patternRule, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(s.Replace) == "" {
		return nil, fmt.Errorf("%s: replace is required", name)
	}
	if s.Command == "" && s.Output == "" && s.ExitCode == nil {
		return nil, fmt.Errorf("%s: at least one of command, output or exit_code is required", name)
	}

	rule := &patternRule{name: name, exitCode: s.ExitCode, replace: s.Replace}

	var err error
	if s.Command != "" {
		if rule.command, err = regexp.Compile(s.Command); err != nil {
			return nil, fmt.Errorf("%s: bad command pattern: %w", name, err)
		}
	}
	if s.Output != "" {
		if rule.output, err = regexp.Compile(s.Output); err != nil {
			return nil, fmt.Errorf("%s: bad output pattern: %w", name, err)
		}
	}
	return rule, nil
}

// patternRule is a user rule compiled from YAML
type patternRule struct {
	name     string
	command  *regexp.Regexp
	output   *regexp.Regexp
	exitCode *int
	replace  string
}

func (r *patternRule) Name() string { return r.name }

func (r *patternRule) Match(in Input) bool {
	if r.exitCode != nil && (in.TimedOut || in.ExitCode != *r.exitCode) {
		return false
	}
	if r.command != nil && !r.command.MatchString(in.Command) {
		return false
	}
	if r.output != nil && !r.output.MatchString(in.Output()) {
		return false
	}
	return true
}

// NewCommand expands {command}, and $1-style groups of the command pattern
func (r *patternRule) NewCommand(in Input) string {
	replace := r.replace
	if r.command != nil {
		if m := r.command.FindStringSubmatchIndex(in.Command); m != nil {
			replace = string(r.command.ExpandString(nil, replace, in.Command, m))
		}
	}
	return strings.ReplaceAll(replace, "{command}", in.Command)
}
