// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/config"
	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/envservice"
	"github.com/invowk/pyenvs/internal/interpreter"
	"github.com/invowk/pyenvs/internal/locator"
	"github.com/invowk/pyenvs/internal/locator/lowlevel"
	"github.com/invowk/pyenvs/internal/logging"
	"github.com/invowk/pyenvs/internal/resource"
)

// watchDebounce is the quiet period before a burst of file events becomes
// one change notification.
const watchDebounce = 300 * time.Millisecond

type (
	// engine is the discovery pipeline for one command invocation.
	engine struct {
		// root deduplicates records across every source.
		root      locator.Locator
		workspace *locator.WorkspaceLocators
		watchers  []*lowlevel.FSWatchingLocator
		service   *resource.Activatable
		envs      *envservice.Service
		disposer  *resource.Disposables
		logger    *log.Logger
	}

	engineOptions struct {
		cfg *config.Config
		// roots are absolute workspace directories.
		roots  []string
		home   string
		goos   string
		getenv func(string) string
		run    interpreter.RunFunc
		logger *log.Logger
	}
)

// newEngine builds the locator tree
//
//	reducer
//	└── extension chain
//	    ├── PATH (cached, refreshed on every iteration)
//	    ├── configured search directories
//	    ├── conda
//	    ├── pyenv, virtualenvwrapper and pipenv homes
//	    └── workspace roots (venvs and poetry projects per root)
//
// Global sources are wrapped in filesystem watchers when watching is
// enabled; the watchers only start with startWatching.
func newEngine(opts engineOptions) *engine {
	cfg := opts.cfg
	logger := logging.OrDiscard(opts.logger)
	locLogger := logging.With(logger, logging.PrefixLocator)
	disposer := resource.NewDisposables(logging.With(logger, logging.PrefixResource))

	e := &engine{logger: logger, disposer: disposer}

	watchBase := lowlevel.WatchOptions{
		Ignore:   cfg.Discovery.IgnoreStrings(),
		Debounce: watchDebounce,
		Logger:   logging.With(logger, logging.PrefixWatch),
	}
	watched := func(l locator.Locator, kind envinfo.Kind, roots func() []string) locator.Locator {
		if !cfg.Discovery.Watch {
			return l
		}
		wo := watchBase
		wo.Roots = roots
		wo.KindForRoot = func(string) envinfo.Kind { return kind }
		wo.NoTree = true
		w := lowlevel.NewFSWatchingLocator(l, wo)
		e.watchers = append(e.watchers, w)
		disposer.Push(w)
		return w
	}

	var global []locator.Locator
	if cfg.Discovery.IncludePath {
		path := lowlevel.NewPathLocator(lowlevel.PathOptions{
			GOOS:   opts.goos,
			Getenv: opts.getenv,
			Logger: locLogger,
		})
		disposer.Push(path)
		global = append(global, path)
	}

	for _, sp := range cfg.Discovery.SearchPaths {
		dir := sp.Expand(opts.home)
		global = append(global, watched(
			lowlevel.NewDirFilesLocator(dir, envinfo.KindCustom, locLogger),
			envinfo.KindCustom,
			func() []string { return []string{dir} },
		))
	}

	conda := lowlevel.NewCondaLocator(lowlevel.CondaOptions{
		Home:   opts.home,
		RCPath: cfg.Conda.RCPath.Expand(opts.home),
		Logger: locLogger,
	})
	global = append(global, watched(conda, envinfo.KindConda, conda.WatchRoots))

	for _, h := range lowlevel.HomeLocators(lowlevel.DefaultHomeDirs(opts.home, opts.getenv), locLogger) {
		if cfg.Discovery.Watch {
			w := h.Watch(watchBase)
			e.watchers = append(e.watchers, w)
			disposer.Push(w)
			global = append(global, w)
			continue
		}
		global = append(global, h.Locator)
	}

	depth := cfg.Discovery.RecurseDepth
	e.workspace = locator.NewWorkspaceLocators(func(root *url.URL) []locator.Locator {
		venvs := locator.Locator(lowlevel.NewWorkspaceVirtualEnvLocator(root, depth, locLogger))
		if cfg.Discovery.Watch {
			// Whole tree: venvs may sit below the root.
			wo := watchBase
			dir := lowlevel.PathFromURI(root)
			wo.Roots = func() []string { return []string{dir} }
			wo.KindForRoot = func(string) envinfo.Kind { return envinfo.KindVenv }
			w := lowlevel.NewFSWatchingLocator(venvs, wo)
			e.watchers = append(e.watchers, w)
			disposer.Push(w)
			venvs = w
		}
		return []locator.Locator{venvs, lowlevel.NewPoetryLocator(root, locLogger)}
	})
	uris := make([]*url.URL, len(opts.roots))
	for i, r := range opts.roots {
		uris[i] = lowlevel.FileURI(r)
	}
	e.workspace.Activate(locator.NewFolders(uris...))
	disposer.Push(e.workspace)

	chain := locator.NewExtensionLocators(global, e.workspace)
	disposer.Push(chain)
	e.root = locator.NewReducingLocator(chain)

	inspectorOpts := []interpreter.Option{interpreter.WithTimeout(cfg.Inspect.Timeout)}
	if opts.run != nil {
		inspectorOpts = append(inspectorOpts, interpreter.WithRunFunc(opts.run))
	}
	inspector := interpreter.NewInspector(inspectorOpts...)
	e.envs = envservice.New(inspector.Inspect,
		envservice.WithWorkers(int(cfg.Inspect.Workers)),
		envservice.WithLogger(logging.With(logger, logging.PrefixEnvService)),
	)
	e.service = resource.NewActivatable(e.envs)
	disposer.Push(e.service)

	return e
}

// workspaceRoots returns the workspace URIs in use.
func (e *engine) workspaceRoots() []*url.URL {
	return e.workspace.Roots()
}

// startWatching activates every filesystem watcher. Watchers that fail to
// start are logged and skipped; the error of the first failure is returned.
func (e *engine) startWatching(ctx context.Context) error {
	var first error
	for _, w := range e.watchers {
		if err := w.Activate(ctx); err != nil {
			e.logger.Warn("watcher unavailable", "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// inspect probes env's interpreter and returns the refined record. A
// failed probe yields env unchanged and ok false.
func (e *engine) inspect(ctx context.Context, env *envinfo.EnvInfo, priority envservice.Priority) (refined *envinfo.EnvInfo, ok bool, err error) {
	if err := e.service.Activate(ctx); err != nil {
		return nil, false, err
	}
	info, err := e.envs.GetEnvironmentInfo(ctx, env.Executable.Filename, priority)
	if err != nil {
		return nil, false, err
	}
	if info == nil {
		return env, false, nil
	}
	return info.Apply(env), true, nil
}

func (e *engine) Dispose() error {
	return e.disposer.Dispose()
}
