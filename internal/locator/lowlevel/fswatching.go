// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/locator"
	"github.com/invowk/pyenvs/internal/logging"
	"github.com/invowk/pyenvs/internal/watch"
)

// ErrWatcherActive is returned by Activate when the watcher already runs.
var ErrWatcherActive = errors.New("locator watcher already active")

type (
	// WatchOptions configures an FSWatchingLocator.
	WatchOptions struct {
		// Roots returns the directories to watch. It is evaluated on Activate
		// so roots created after construction are picked up.
		Roots func() []string
		// KindForRoot names the kind of environment expected under a root;
		// nil yields KindUnknown.
		KindForRoot func(root string) envinfo.Kind
		// NoTree watches the roots only, not their subdirectories.
		NoTree   bool
		Ignore   []string
		Debounce time.Duration
		Logger   *log.Logger
	}

	// WatchedLocator pairs a leaf locator with the directory whose direct
	// children are its environments.
	WatchedLocator struct {
		Locator   locator.Locator
		WatchRoot string
		Kind      envinfo.Kind
	}

	// FSWatchingLocator delegates discovery to an inner locator and emits
	// change events when something below its roots changes on disk.
	FSWatchingLocator struct {
		inner  locator.Locator
		opts   WatchOptions
		logger *log.Logger

		changed locator.Emitter[locator.ChangeEvent]
		unsub   func()

		mu     sync.Mutex
		cancel context.CancelFunc
		done   chan struct{}
	}
)

// NewFSWatchingLocator wraps inner. Watching starts with Activate.
func NewFSWatchingLocator(inner locator.Locator, opts WatchOptions) *FSWatchingLocator {
	f := &FSWatchingLocator{
		inner:  inner,
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger),
	}
	f.unsub = inner.OnChanged(f.changed.Fire)
	return f
}

// Watch wraps w in an FSWatchingLocator over its root. Only the root itself
// is watched; base carries the shared settings.
func (w *WatchedLocator) Watch(base WatchOptions) *FSWatchingLocator {
	opts := base
	root, kind := w.WatchRoot, w.Kind
	opts.Roots = func() []string { return []string{root} }
	opts.KindForRoot = func(string) envinfo.Kind { return kind }
	opts.NoTree = true
	return NewFSWatchingLocator(w.Locator, opts)
}

// Activate starts watching. The watcher stops when ctx is cancelled or
// Dispose is called.
func (f *FSWatchingLocator) Activate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return ErrWatcherActive
	}

	var roots []string
	if f.opts.Roots != nil {
		roots = f.opts.Roots()
	}
	w, err := watch.New(watch.Config{
		Roots:    roots,
		NoTree:   f.opts.NoTree,
		Ignore:   f.opts.Ignore,
		Debounce: f.opts.Debounce,
		OnChange: f.onChange,
		Logger:   f.logger,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		if err := w.Run(runCtx); err != nil {
			f.logger.Error("watcher stopped", "roots", roots, "error", err)
		}
	}(f.done)
	return nil
}

func (f *FSWatchingLocator) onChange(_ context.Context, changes []watch.Change) error {
	fired := make(map[envinfo.Kind]bool)
	for _, change := range changes {
		kind := envinfo.KindUnknown
		if f.opts.KindForRoot != nil {
			kind = f.opts.KindForRoot(change.Root)
		}
		if fired[kind] {
			continue
		}
		fired[kind] = true
		f.logger.Debug("environment change", "root", change.Root, "path", change.Path, "kind", kind)
		f.changed.Fire(locator.ChangeEvent{Kind: kind})
	}
	return nil
}

// IterEnvs implements locator.Locator.
func (f *FSWatchingLocator) IterEnvs(ctx context.Context, q locator.Query) *locator.EnvsIterator {
	return f.inner.IterEnvs(ctx, q)
}

// ResolveEnv implements locator.Locator.
func (f *FSWatchingLocator) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	return f.inner.ResolveEnv(ctx, env)
}

// OnChanged implements locator.Locator.
func (f *FSWatchingLocator) OnChanged(fn func(locator.ChangeEvent)) func() {
	return f.changed.Subscribe(fn)
}

// Dispose stops the watcher and waits for it to release its handles.
func (f *FSWatchingLocator) Dispose() error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()

	f.unsub()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
