// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/locator"
	"github.com/invowk/pyenvs/internal/logging"
	"github.com/invowk/pyenvs/internal/pyfs"
	"github.com/invowk/pyenvs/pkg/platform"
)

const pyprojectFile = "pyproject.toml"

type (
	// PoetryLocator finds the in-project environment (.venv) of a poetry
	// project at a workspace root.
	PoetryLocator struct {
		root    *url.URL
		dir     string
		logger  *log.Logger
		changed locator.Emitter[locator.ChangeEvent]
	}

	pyproject struct {
		Tool struct {
			Poetry *struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
)

// NewPoetryLocator returns the poetry locator for one workspace root.
func NewPoetryLocator(root *url.URL, logger *log.Logger) *PoetryLocator {
	return &PoetryLocator{root: root, dir: PathFromURI(root), logger: logging.OrDiscard(logger)}
}

// ProjectName returns the tool.poetry.name of the pyproject.toml in dir.
// The second result is false when dir is not a poetry project.
func ProjectName(dir string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, pyprojectFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	var project pyproject
	if err := toml.Unmarshal(data, &project); err != nil {
		return "", false, err
	}
	if project.Tool.Poetry == nil {
		return "", false, nil
	}
	return project.Tool.Poetry.Name, true, nil
}

// IterEnvs implements locator.Locator.
func (p *PoetryLocator) IterEnvs(ctx context.Context, q locator.Query) *locator.EnvsIterator {
	if !q.WantsKind(envinfo.KindPoetry) {
		return locator.NoEnvs(ctx)
	}
	return locator.Produce(ctx, func(ctx context.Context, sink *locator.Sink) {
		if env := p.find(ctx); env != nil {
			sink.Yield(env)
		}
	})
}

func (p *PoetryLocator) find(ctx context.Context) *envinfo.EnvInfo {
	if p.dir == "" {
		return nil
	}
	name, ok, err := ProjectName(p.dir)
	if err != nil {
		p.logger.Warn("reading pyproject.toml failed", "dir", p.dir, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	envDir := filepath.Join(p.dir, ".venv")
	exe := pyfs.InterpreterPathFromDir(ctx, envDir)
	if exe == "" {
		return nil
	}
	if name == "" {
		name = filepath.Base(p.dir)
	}
	version := pyfs.PythonVersionFromPath(ctx, exe, "")
	env := envinfo.New(envinfo.Init{
		Kind:       envinfo.KindPoetry,
		Executable: exe,
		Name:       name,
		Location:   envDir,
		Version:    &version,
	})
	env.SearchLocation = p.root
	return env
}

// ResolveEnv implements locator.Locator.
func (p *PoetryLocator) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	if env == nil || p.dir == "" || !platform.IsParentPath(env.Executable.Filename, p.dir) {
		return nil, nil
	}
	found := p.find(ctx)
	if found == nil || !envinfo.EnvMatcher(env.Executable.Filename)(found) {
		return nil, nil
	}
	return found, nil
}

// OnChanged implements locator.Locator.
func (p *PoetryLocator) OnChanged(fn func(locator.ChangeEvent)) func() {
	return p.changed.Subscribe(fn)
}
