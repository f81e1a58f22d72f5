// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/locator"
	"github.com/invowk/pyenvs/internal/logging"
	"github.com/invowk/pyenvs/internal/pyfs"
	"github.com/invowk/pyenvs/pkg/platform"
)

// skippedDirs are never searched for environments.
var skippedDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"__pycache__":   true,
	"site-packages": true,
}

type (
	// VirtualEnvOptions configures a VirtualEnvLocator.
	VirtualEnvOptions struct {
		// Root is the directory searched for environments.
		Root string
		// Depth is how many levels of intermediate directories are descended
		// looking for environments. Zero checks Root's direct children only.
		Depth int
		// Kind, when set, overrides the venv/virtualenv detection; global
		// homes like WORKON_HOME tag their environments this way.
		Kind envinfo.Kind
		// SearchLocation is stamped on every record; nil for global homes.
		SearchLocation *url.URL
		Logger         *log.Logger
	}

	// VirtualEnvLocator finds environments created by venv or virtualenv:
	// directories holding a pyvenv.cfg next to an interpreter.
	VirtualEnvLocator struct {
		opts    VirtualEnvOptions
		logger  *log.Logger
		changed locator.Emitter[locator.ChangeEvent]
	}
)

// NewVirtualEnvLocator returns a locator over the environments below
// opts.Root.
func NewVirtualEnvLocator(opts VirtualEnvOptions) *VirtualEnvLocator {
	return &VirtualEnvLocator{opts: opts, logger: logging.OrDiscard(opts.Logger)}
}

// NewWorkspaceVirtualEnvLocator is the per-root factory for workspace
// virtual environments.
func NewWorkspaceVirtualEnvLocator(root *url.URL, depth int, logger *log.Logger) *VirtualEnvLocator {
	return NewVirtualEnvLocator(VirtualEnvOptions{
		Root:           PathFromURI(root),
		Depth:          depth,
		SearchLocation: root,
		Logger:         logger,
	})
}

// Root returns the searched directory.
func (v *VirtualEnvLocator) Root() string { return v.opts.Root }

// IterEnvs implements locator.Locator.
func (v *VirtualEnvLocator) IterEnvs(ctx context.Context, q locator.Query) *locator.EnvsIterator {
	return locator.Produce(ctx, func(ctx context.Context, sink *locator.Sink) {
		if v.opts.Root == "" {
			return
		}
		dirs, err := findEnvDirs(ctx, v.opts.Root, v.opts.Depth)
		if err != nil {
			v.logger.Warn("virtual environment scan failed", "root", v.opts.Root, "error", err)
			return
		}
		for _, dir := range dirs {
			env := v.buildEnv(ctx, dir)
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
func (v *VirtualEnvLocator) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	if env == nil || v.opts.Root == "" || !platform.IsParentPath(env.Executable.Filename, v.opts.Root) {
		return nil, nil
	}
	return locator.ResolveFromIterator(ctx, v.IterEnvs(ctx, locator.Query{}), env.Executable.Filename)
}

// OnChanged implements locator.Locator.
func (v *VirtualEnvLocator) OnChanged(fn func(locator.ChangeEvent)) func() {
	return v.changed.Subscribe(fn)
}

func (v *VirtualEnvLocator) buildEnv(ctx context.Context, dir string) *envinfo.EnvInfo {
	exe := pyfs.InterpreterPathFromDir(ctx, dir)
	if exe == "" {
		v.logger.Debug("environment without interpreter", "dir", dir)
		return nil
	}
	kind := v.opts.Kind
	if kind == "" {
		kind = venvKind(dir)
	}
	version := pyfs.PythonVersionFromPath(ctx, exe, "")
	env := envinfo.New(envinfo.Init{
		Kind:       kind,
		Executable: exe,
		Name:       filepath.Base(dir),
		Location:   dir,
		Version:    &version,
	})
	env.SearchLocation = v.opts.SearchLocation
	return env
}

// venvKind tells virtualenv environments apart by the "virtualenv" key
// their pyvenv.cfg carries.
func venvKind(dir string) envinfo.Kind {
	values, err := pyfs.ReadVenvConfig(filepath.Join(dir, "pyvenv.cfg"))
	if err != nil {
		return envinfo.KindVenv
	}
	if _, ok := values["virtualenv"]; ok {
		return envinfo.KindVirtualEnv
	}
	return envinfo.KindVenv
}

// IsVirtualEnvDir reports whether dir holds a pyvenv.cfg.
func IsVirtualEnvDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "pyvenv.cfg"))
	return err == nil && !info.IsDir()
}

// findEnvDirs walks root up to depth levels and returns the environment
// directories in walk order. Environments are not searched for nested ones.
func findEnvDirs(ctx context.Context, root string, depth int) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			if errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if skippedDirs[d.Name()] {
			return fs.SkipDir
		}
		if IsVirtualEnvDir(path) {
			dirs = append(dirs, path)
			return fs.SkipDir
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if strings.Count(filepath.ToSlash(rel), "/") >= depth {
			return fs.SkipDir
		}
		return nil
	})
	return dirs, err
}
