// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/locator"
	"github.com/invowk/pyenvs/internal/logging"
	"github.com/invowk/pyenvs/internal/pyfs"
	"github.com/invowk/pyenvs/pkg/pyversion"
)

type (
	// FilesFunc lists candidate executables.
	FilesFunc func(ctx context.Context) ([]string, error)

	// KindFunc assigns a kind to one executable found by a FilesFunc.
	KindFunc func(executable string) envinfo.Kind

	// FoundFilesLocator turns a list of executables into records. Each file
	// is yielded as a minimal record first; version guesses from nearby
	// files follow as updates.
	FoundFilesLocator struct {
		source   string
		kindOf   KindFunc
		getFiles FilesFunc
		logger   *log.Logger
		changed  locator.Emitter[locator.ChangeEvent]
	}
)

// NewFoundFilesLocator returns a locator over the executables listed by
// getFiles, every one of them tagged kind.
func NewFoundFilesLocator(source string, kind envinfo.Kind, getFiles FilesFunc, logger *log.Logger) *FoundFilesLocator {
	return NewFoundFilesLocatorFunc(source, func(string) envinfo.Kind { return kind }, getFiles, logger)
}

// NewFoundFilesLocatorFunc is NewFoundFilesLocator with a per-file kind.
func NewFoundFilesLocatorFunc(source string, kindOf KindFunc, getFiles FilesFunc, logger *log.Logger) *FoundFilesLocator {
	return &FoundFilesLocator{
		source:   source,
		kindOf:   kindOf,
		getFiles: getFiles,
		logger:   logging.OrDiscard(logger),
	}
}

// NewDirFilesLocator returns a locator over the Python executables directly
// inside dir.
func NewDirFilesLocator(dir string, kind envinfo.Kind, logger *log.Logger) *FoundFilesLocator {
	return NewFoundFilesLocator(dir, kind, func(ctx context.Context) ([]string, error) {
		return pyfs.PythonExecutablesInDir(ctx, dir)
	}, logger)
}

// IterEnvs implements locator.Locator.
func (f *FoundFilesLocator) IterEnvs(ctx context.Context, q locator.Query) *locator.EnvsIterator {
	return locator.Produce(ctx, func(ctx context.Context, sink *locator.Sink) {
		files, err := f.getFiles(ctx)
		if err != nil {
			f.logger.Warn("listing executables failed", "source", f.source, "error", err)
			return
		}

		type pending struct {
			idx int
			env *envinfo.EnvInfo
		}
		var refine []pending
		for _, exe := range files {
			kind := f.kindOf(exe)
			if !q.WantsKind(kind) {
				continue
			}
			env := envinfo.GetFastEnvInfo(kind, exe)
			idx, ok := sink.Yield(env)
			if !ok {
				return
			}
			refine = append(refine, pending{idx: idx, env: env})
		}
		sink.EndEnvs()

		for _, p := range refine {
			if ctx.Err() != nil {
				return
			}
			found := pyfs.PythonVersionFromPath(ctx, p.env.Executable.Filename, "")
			v := pyversion.Merge(p.env.Version, found)
			if found.IsEmpty() || pyversion.AreIdentical(v, p.env.Version) {
				continue
			}
			updated := p.env.Copy()
			updated.Version = v
			f.logger.Debug("version refined", "executable", updated.Executable.Filename, "version", v.String())
			sink.Update(locator.UpdateEvent{Index: p.idx, Old: p.env, New: updated})
		}
	})
}

// ResolveEnv implements locator.Locator. Only executables this locator
// lists can be resolved.
func (f *FoundFilesLocator) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	if env == nil {
		return nil, nil
	}
	return locator.ResolveFromIterator(ctx, f.IterEnvs(ctx, locator.Query{}), env.Executable.Filename)
}

// OnChanged implements locator.Locator.
func (f *FoundFilesLocator) OnChanged(fn func(locator.ChangeEvent)) func() {
	return f.changed.Subscribe(fn)
}

// TriggerRefresh tells listeners that the file list may be stale.
func (f *FoundFilesLocator) TriggerRefresh() {
	f.changed.Fire(locator.ChangeEvent{})
}
