// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	ColorSchemeAuto  ColorScheme = "auto"
	ColorSchemeDark  ColorScheme = "dark"
	ColorSchemeLight ColorScheme = "light"

	// MinWorkers and MaxWorkers bound the inspection pool size.
	MinWorkers WorkerCount = 1
	MaxWorkers WorkerCount = 64

	// MaxRecurseDepth bounds the workspace virtual environment search.
	MaxRecurseDepth = 16
)

var (
	ErrInvalidColorScheme   = errors.New("invalid color scheme")
	ErrInvalidSearchPath    = errors.New("invalid search path")
	ErrInvalidWorkerCount   = errors.New("invalid worker count")
	ErrInvalidRecurseDepth  = errors.New("invalid recurse depth")
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")
	ErrInvalidTimeout       = errors.New("invalid probe timeout")
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme selects the terminal palette.
	ColorScheme string

	// SearchPath is a directory scanned for interpreters. "~" expands to the
	// user's home directory.
	SearchPath string

	// WorkerCount is the number of concurrent interpreter probes.
	WorkerCount int

	// IgnorePattern is a doublestar glob matched against watched paths.
	IgnorePattern string

	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	InvalidSearchPathError struct {
		Value SearchPath
	}

	InvalidWorkerCountError struct {
		Value WorkerCount
	}

	InvalidRecurseDepthError struct {
		Value int
	}

	InvalidIgnorePatternError struct {
		Value IgnorePattern
		Cause error
	}

	InvalidTimeoutError struct {
		Value time.Duration
	}

	// InvalidConfigError collects every field error found in a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the full pyenvs configuration.
	Config struct {
		Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
		Conda     CondaConfig     `json:"conda" mapstructure:"conda"`
		Inspect   InspectConfig   `json:"inspect" mapstructure:"inspect"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// DiscoveryConfig selects where interpreters are looked for.
	DiscoveryConfig struct {
		SearchPaths []SearchPath `json:"search_paths" mapstructure:"search_paths"`
		// IncludePath scans the directories listed in PATH.
		IncludePath bool `json:"include_path" mapstructure:"include_path"`
		// WorkspaceRoots defaults to the working directory when empty.
		WorkspaceRoots []SearchPath    `json:"workspace_roots" mapstructure:"workspace_roots"`
		RecurseDepth   int             `json:"recurse_depth" mapstructure:"recurse_depth"`
		Watch          bool            `json:"watch" mapstructure:"watch"`
		Ignore         []IgnorePattern `json:"ignore" mapstructure:"ignore"`
	}

	CondaConfig struct {
		// RCPath is the .condarc read for envs_dirs.
		RCPath SearchPath `json:"rc_path" mapstructure:"rc_path"`
	}

	// InspectConfig tunes interpreter probing.
	InspectConfig struct {
		Workers WorkerCount   `json:"workers" mapstructure:"workers"`
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			SearchPaths:    []SearchPath{},
			IncludePath:    true,
			WorkspaceRoots: []SearchPath{},
			RecurseDepth:   2,
			Watch:          true,
			Ignore:         []IgnorePattern{"**/node_modules/**", "**/.git/**"},
		},
		Conda: CondaConfig{RCPath: "~/.condarc"},
		Inspect: InspectConfig{
			Workers: 2,
			Timeout: 15 * time.Second,
		},
		UI: UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// IsValid checks every field and wraps the failures in an
// InvalidConfigError.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	add := func(_ bool, fieldErrs []error) {
		errs = append(errs, fieldErrs...)
	}

	for _, p := range c.Discovery.SearchPaths {
		add(p.IsValid())
	}
	for _, p := range c.Discovery.WorkspaceRoots {
		add(p.IsValid())
	}
	if c.Discovery.RecurseDepth < 0 || c.Discovery.RecurseDepth > MaxRecurseDepth {
		errs = append(errs, &InvalidRecurseDepthError{Value: c.Discovery.RecurseDepth})
	}
	for _, p := range c.Discovery.Ignore {
		add(p.IsValid())
	}
	add(c.Conda.RCPath.IsValid())
	add(c.Inspect.Workers.IsValid())
	if c.Inspect.Timeout <= 0 {
		errs = append(errs, &InvalidTimeoutError{Value: c.Inspect.Timeout})
	}
	add(c.UI.ColorScheme.IsValid())

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid accepts auto, dark and light.
func (s ColorScheme) IsValid() (bool, []error) {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: s}}
	}
}

func (s ColorScheme) String() string { return string(s) }

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid rejects empty and whitespace-only paths.
func (p SearchPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidSearchPathError{Value: p}}
	}
	return true, nil
}

func (p SearchPath) String() string { return string(p) }

// Expand replaces a leading "~" with home.
func (p SearchPath) Expand(home string) string {
	s := string(p)
	if home == "" || (s != "~" && !strings.HasPrefix(s, "~/") && !strings.HasPrefix(s, `~\`)) {
		return s
	}
	return home + s[1:]
}

func (e *InvalidSearchPathError) Error() string {
	return fmt.Sprintf("invalid search path %q: must be non-empty", e.Value)
}

func (e *InvalidSearchPathError) Unwrap() error { return ErrInvalidSearchPath }

// IsValid accepts MinWorkers through MaxWorkers.
func (w WorkerCount) IsValid() (bool, []error) {
	if w < MinWorkers || w > MaxWorkers {
		return false, []error{&InvalidWorkerCountError{Value: w}}
	}
	return true, nil
}

func (e *InvalidWorkerCountError) Error() string {
	return fmt.Sprintf("invalid worker count %d (must be %d-%d)", e.Value, MinWorkers, MaxWorkers)
}

func (e *InvalidWorkerCountError) Unwrap() error { return ErrInvalidWorkerCount }

func (e *InvalidRecurseDepthError) Error() string {
	return fmt.Sprintf("invalid recurse depth %d (must be 0-%d)", e.Value, MaxRecurseDepth)
}

func (e *InvalidRecurseDepthError) Unwrap() error { return ErrInvalidRecurseDepth }

// IsValid checks the pattern with doublestar.
func (p IgnorePattern) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" || !doublestar.ValidatePattern(string(p)) {
		return false, []error{&InvalidIgnorePatternError{Value: p, Cause: doublestar.ErrBadPattern}}
	}
	return true, nil
}

func (e *InvalidIgnorePatternError) Error() string {
	return fmt.Sprintf("invalid ignore pattern %q: %v", e.Value, e.Cause)
}

func (e *InvalidIgnorePatternError) Unwrap() []error {
	return []error{ErrInvalidIgnorePattern, e.Cause}
}

func (e *InvalidTimeoutError) Error() string {
	return fmt.Sprintf("invalid probe timeout %s: must be positive", e.Value)
}

func (e *InvalidTimeoutError) Unwrap() error { return ErrInvalidTimeout }

// IgnoreStrings returns the ignore patterns as plain strings.
func (d DiscoveryConfig) IgnoreStrings() []string {
	out := make([]string, len(d.Ignore))
	for i, p := range d.Ignore {
		out[i] = string(p)
	}
	return out
}
