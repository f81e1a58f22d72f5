// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/locator"
	"github.com/invowk/pyenvs/internal/logging"
	"github.com/invowk/pyenvs/internal/pyfs"
	"github.com/invowk/pyenvs/pkg/platform"
)

// condaInstallNames are the usual install directories under the home dir.
var condaInstallNames = []string{"anaconda3", "miniconda3", "miniforge3", "mambaforge", "anaconda", "miniconda"}

type (
	// CondaOptions configures a CondaLocator.
	CondaOptions struct {
		// Home is the user's home directory.
		Home string
		// RCPath is the .condarc to read envs_dirs from; empty means
		// Home/.condarc.
		RCPath string
		Logger *log.Logger
	}

	// CondaLocator finds conda installs and the environments they manage.
	CondaLocator struct {
		opts    CondaOptions
		logger  *log.Logger
		changed locator.Emitter[locator.ChangeEvent]
	}

	condarc struct {
		EnvsDirs []string `yaml:"envs_dirs"`
	}
)

// NewCondaLocator returns a conda locator.
func NewCondaLocator(opts CondaOptions) *CondaLocator {
	if opts.RCPath == "" && opts.Home != "" {
		opts.RCPath = filepath.Join(opts.Home, ".condarc")
	}
	return &CondaLocator{opts: opts, logger: logging.OrDiscard(opts.Logger)}
}

// ReadEnvsDirs returns the envs_dirs entries of a .condarc. A missing file
// yields no entries. A leading "~" is expanded against home.
func ReadEnvsDirs(path, home string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var rc condarc
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, err
	}
	dirs := make([]string, 0, len(rc.EnvsDirs))
	for _, dir := range rc.EnvsDirs {
		dirs = append(dirs, expandHome(dir, home))
	}
	return dirs, nil
}

// ReadEnvironmentsTxt returns the environment directories conda recorded in
// ~/.conda/environments.txt.
func ReadEnvironmentsTxt(home string) ([]string, error) {
	f, err := os.Open(filepath.Join(home, ".conda", "environments.txt"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var dirs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			dirs = append(dirs, line)
		}
	}
	return dirs, scanner.Err()
}

// IsCondaEnvDir reports whether dir holds a conda-meta directory.
func IsCondaEnvDir(dir string) bool {
	return pyfs.IsDirectory(filepath.Join(dir, "conda-meta"))
}

// IterEnvs implements locator.Locator.
func (c *CondaLocator) IterEnvs(ctx context.Context, q locator.Query) *locator.EnvsIterator {
	if !q.WantsKind(envinfo.KindConda) && !q.WantsKind(envinfo.KindCondaBase) {
		return locator.NoEnvs(ctx)
	}
	return locator.Produce(ctx, func(ctx context.Context, sink *locator.Sink) {
		for _, dir := range c.envDirs() {
			if ctx.Err() != nil {
				return
			}
			env := c.buildEnv(ctx, dir)
			if env == nil || !q.WantsKind(env.Kind) {
				continue
			}
			if _, ok := sink.Yield(env); !ok {
				return
			}
		}
	})
}

// ResolveEnv implements locator.Locator.
func (c *CondaLocator) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	if env == nil || env.Executable.Filename == "" {
		return nil, nil
	}
	dir := pyfs.EnvironmentDirFromPath(env.Executable.Filename)
	if !IsCondaEnvDir(dir) {
		return nil, nil
	}
	found := c.buildEnv(ctx, dir)
	if found == nil || !envinfo.EnvMatcher(env.Executable.Filename)(found) {
		return nil, nil
	}
	return found, nil
}

// OnChanged implements locator.Locator.
func (c *CondaLocator) OnChanged(fn func(locator.ChangeEvent)) func() {
	return c.changed.Subscribe(fn)
}

// WatchRoots returns the directories whose contents change when conda
// environments are created or removed.
func (c *CondaLocator) WatchRoots() []string {
	var roots []string
	for _, base := range c.baseDirs() {
		roots = append(roots, filepath.Join(base, "envs"))
	}
	roots = append(roots, c.envsDirs()...)
	if c.opts.Home != "" {
		roots = append(roots, filepath.Join(c.opts.Home, ".conda"))
	}
	return roots
}

// envDirs lists every known environment directory once: installs first,
// then their envs, then configured and recorded environments.
func (c *CondaLocator) envDirs() []string {
	var (
		dirs []string
		seen = make(map[string]bool)
	)
	add := func(dir string) {
		key := platform.NormCase(platform.NormalizePath(dir))
		if seen[key] || !IsCondaEnvDir(dir) {
			return
		}
		seen[key] = true
		dirs = append(dirs, dir)
	}

	containers := c.envsDirs()
	for _, base := range c.baseDirs() {
		add(base)
		containers = append(containers, filepath.Join(base, "envs"))
	}
	for _, container := range containers {
		entries, err := os.ReadDir(container)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				add(filepath.Join(container, entry.Name()))
			}
		}
	}
	if c.opts.Home != "" {
		recorded, err := ReadEnvironmentsTxt(c.opts.Home)
		if err != nil {
			c.logger.Warn("reading environments.txt failed", "error", err)
		}
		for _, dir := range recorded {
			add(dir)
		}
	}
	return dirs
}

func (c *CondaLocator) baseDirs() []string {
	if c.opts.Home == "" {
		return nil
	}
	var bases []string
	for _, name := range condaInstallNames {
		dir := filepath.Join(c.opts.Home, name)
		if IsCondaEnvDir(dir) {
			bases = append(bases, dir)
		}
	}
	return bases
}

func (c *CondaLocator) envsDirs() []string {
	if c.opts.RCPath == "" {
		return nil
	}
	dirs, err := ReadEnvsDirs(c.opts.RCPath, c.opts.Home)
	if err != nil {
		c.logger.Warn("reading .condarc failed", "path", c.opts.RCPath, "error", err)
		return nil
	}
	return dirs
}

func (c *CondaLocator) buildEnv(ctx context.Context, dir string) *envinfo.EnvInfo {
	exe := pyfs.InterpreterPathFromDir(ctx, dir)
	if exe == "" {
		c.logger.Debug("conda environment without interpreter", "dir", dir)
		return nil
	}
	kind, name := envinfo.KindConda, filepath.Base(dir)
	if isCondaBase(dir) {
		kind, name = envinfo.KindCondaBase, "base"
	}
	version := pyfs.PythonVersionFromConda(exe)
	return envinfo.New(envinfo.Init{
		Kind:       kind,
		Executable: exe,
		Name:       name,
		Location:   dir,
		Version:    &version,
		Org:        "ContinuumAnalytics",
	})
}

// isCondaBase recognizes an install root by its envs or condabin directory.
func isCondaBase(dir string) bool {
	return pyfs.IsDirectory(filepath.Join(dir, "condabin")) || pyfs.IsDirectory(filepath.Join(dir, "envs"))
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}
