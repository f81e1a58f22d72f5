// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/invowk/pyenvs/internal/issue"
	"github.com/invowk/pyenvs/pkg/platform"
)

const (
	AppName = "pyenvs"
	// FileName is the config file name inside the config directory.
	FileName = "config.cue"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "PYENVS"
)

//go:embed config_schema.cue
var configSchema string

// DirFor returns the pyenvs config directory for goos. getenv supplies the
// environment and home is the user's home directory.
func DirFor(goos string, getenv func(string) string, home string) (string, error) {
	var base string
	switch goos {
	case platform.Windows:
		base = getenv("APPDATA")
		if base == "" {
			if profile := getenv("USERPROFILE"); profile != "" {
				base = filepath.Join(profile, "AppData", "Roaming")
			}
		}
	case platform.Darwin:
		if home != "" {
			base = filepath.Join(home, "Library", "Application Support")
		}
	default:
		base = getenv("XDG_CONFIG_HOME")
		if base == "" && home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", errors.New("cannot determine config directory: home directory unknown")
	}
	return filepath.Join(base, AppName), nil
}

// Dir returns the config directory of the running host.
func Dir() (string, error) {
	home, _ := os.UserHomeDir()
	return DirFor(runtime.GOOS, os.Getenv, home)
}

// FilePath returns the file Load reads for opts, whether or not it exists.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = Dir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the configuration described by opts. It returns the path of the
// file that was read, or "" when only defaults and environment applied. An
// explicit ConfigFilePath must exist; the default location may be absent.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := newViper()

	path, err := FilePath(opts)
	if err != nil {
		return nil, "", err
	}

	resolved := ""
	switch _, statErr := os.Stat(path); {
	case statErr == nil:
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE").
				WithSuggestion("Run 'pyenvs config init --force' to start over from defaults").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
		resolved = path
	case errors.Is(statErr, fs.ErrNotExist) && opts.ConfigFilePath == "":
		// defaults only
	default:
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'pyenvs config path' to see the default location").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(statErr).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("decode configuration").
			WithResource(resolved).
			WithSuggestion("Check PYENVS_* environment variables for malformed values").
			WithIssue(issue.InvalidConfigId).
			Wrap(err).
			BuildError()
	}

	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolved).
			WithSuggestion("Run 'pyenvs config show' to see the effective values").
			WithIssue(issue.InvalidConfigId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	return &cfg, resolved, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("discovery.search_paths", d.Discovery.SearchPaths)
	v.SetDefault("discovery.include_path", d.Discovery.IncludePath)
	v.SetDefault("discovery.workspace_roots", d.Discovery.WorkspaceRoots)
	v.SetDefault("discovery.recurse_depth", d.Discovery.RecurseDepth)
	v.SetDefault("discovery.watch", d.Discovery.Watch)
	v.SetDefault("discovery.ignore", d.Discovery.IgnoreStrings())
	v.SetDefault("conda.rc_path", string(d.Conda.RCPath))
	v.SetDefault("inspect.workers", int(d.Inspect.Workers))
	v.SetDefault("inspect.timeout", d.Inspect.Timeout.String())
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, fs.ErrExist)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg in the config file format.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pyenvs configuration\n\n")

	sb.WriteString("discovery: {\n")
	fmt.Fprintf(&sb, "\tsearch_paths: %s\n", cueList(cfg.Discovery.SearchPaths))
	fmt.Fprintf(&sb, "\tinclude_path: %v\n", cfg.Discovery.IncludePath)
	fmt.Fprintf(&sb, "\tworkspace_roots: %s\n", cueList(cfg.Discovery.WorkspaceRoots))
	fmt.Fprintf(&sb, "\trecurse_depth: %d\n", cfg.Discovery.RecurseDepth)
	fmt.Fprintf(&sb, "\twatch: %v\n", cfg.Discovery.Watch)
	fmt.Fprintf(&sb, "\tignore: %s\n", cueList(cfg.Discovery.Ignore))
	sb.WriteString("}\n")

	sb.WriteString("\nconda: {\n")
	fmt.Fprintf(&sb, "\trc_path: %q\n", cfg.Conda.RCPath)
	sb.WriteString("}\n")

	sb.WriteString("\ninspect: {\n")
	fmt.Fprintf(&sb, "\tworkers: %d\n", cfg.Inspect.Workers)
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Inspect.Timeout.String())
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList[S ~string](items []S) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", string(it))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
