// SPDX-License-Identifier: MPL-2.0

// Package watch provides scoped filesystem change notification for
// environment locators.
//
// A Watcher monitors a set of root directories, either recursively or only
// the roots themselves, and invokes a callback after a debounce period.
// Events within the debounce window are coalesced so the callback fires once
// with the full set of changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/invowk/pyenvs/internal/logging"
)

// defaultDebounce is the delay before firing the onChange callback after the
// last filesystem event. Creating an environment writes many files in bursts.
const defaultDebounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned when Run is called a second time.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// defaultIgnores lists path patterns that are always excluded from watching.
// Package installs and bytecode caches churn inside environments without
// adding or removing interpreters.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/site-packages/**",
	"**/*.pyc",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Change is one coalesced filesystem change.
	Change struct {
		// Root is the watched root the change happened under.
		Root string
		// Path is relative to Root, slash-separated.
		Path string
	}

	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the directories to watch. Roots that do not exist yet are
		// skipped.
		Roots []string

		// NoTree restricts watching to the roots themselves instead of their
		// whole directory trees.
		NoTree bool

		// Ignore are additional doublestar-compatible glob patterns, relative
		// to the root, merged with the built-in default ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// OnChange is called after the debounce window closes with the
		// deduplicated changes. A nil callback is a no-op.
		OnChange func(ctx context.Context, changes []Change) error

		// Logger receives diagnostics; nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors root directories and fires a debounced callback when
	// something beneath them changes. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		roots    []string
		logger   *log.Logger
		debounce time.Duration
		started  atomic.Bool
	}
)

// New creates a Watcher from the given Config. It resolves every root to an
// absolute path, initialises the underlying fsnotify watcher, and registers
// the roots (and, unless NoTree is set, their non-ignored subdirectories).
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %q: %w", root, err)
		}
		if !slices.Contains(roots, abs) {
			roots = append(roots, abs)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		roots:    roots,
		logger:   logging.OrDiscard(cfg.Logger),
		debounce: debounce,
	}

	for _, root := range roots {
		if err := w.addRoot(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				w.logger.Warn("close after init failure", "error", closeErr)
			}
			return nil, err
		}
	}

	return w, nil
}

// Roots returns the absolute roots being watched.
func (w *Watcher) Roots() []string {
	return slices.Clone(w.roots)
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean context
// cancellation and propagates any fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[Change]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire drains the pending set and invokes the OnChange callback. The
	// skip-if-busy guard keeps callbacks from overlapping when one outlasts
	// the debounce period; skipped batches are retried.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("callback still running, deferring changes")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changes := slices.SortedFunc(maps.Keys(pending), func(a, b Change) int {
			return strings.Compare(a.Root+"\x00"+a.Path, b.Root+"\x00"+b.Path)
		})
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changes); err != nil {
				w.logger.Warn("change callback failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil {
			localTimer.Stop()
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}

			change, ok := w.classify(evt.Name)
			if !ok {
				continue
			}

			// Extend recursive watches to directories created after startup,
			// such as a freshly created virtual environment.
			if evt.Has(fsnotify.Create) && !w.cfg.NoTree {
				w.maybeAddDir(change.Root, evt.Name)
			}

			mu.Lock()
			pending[change] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			// isFatalFsnotifyError is platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// classify maps an event path to its owning root, dropping ignored paths and
// paths outside every root.
func (w *Watcher) classify(path string) (Change, bool) {
	root := w.rootOf(path)
	if root == "" {
		return Change{}, false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Change{}, false
	}
	if w.isIgnored(rel) {
		return Change{}, false
	}
	return Change{Root: root, Path: filepath.ToSlash(rel)}, true
}

// rootOf returns the most specific root containing path, or "".
func (w *Watcher) rootOf(path string) string {
	best := ""
	for _, root := range w.roots {
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best
}

// addRoot registers root, and its subtree unless NoTree is set.
func (w *Watcher) addRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		w.logger.Debug("skipping missing root", "root", root)
		return nil
	}
	if w.cfg.NoTree {
		if err := w.fsw.Add(root); err != nil {
			return fmt.Errorf("watch: add root %q: %w", root, err)
		}
		return nil
	}
	if err := w.addTree(root, root); err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

// addTree registers dir and every non-ignored directory beneath it.
func (w *Watcher) addTree(root, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Permission errors on individual dirs should not prevent watching
			// the rest of the tree.
			w.logger.Debug("skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if w.isIgnored(rel) || w.isIgnored(rel+"/") {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
}

// maybeAddDir registers a directory created after startup together with
// anything already created inside it.
func (w *Watcher) maybeAddDir(root, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(root, path); err != nil {
		w.logger.Warn("add new directory", "path", path, "error", err)
	}
}

// isIgnored returns true if the root-relative path matches any ignore pattern.
func (w *Watcher) isIgnored(rel string) bool {
	return matchesAny(w.ignores, rel)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchesAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// validatePatterns checks that every pattern is a valid doublestar glob.
func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid ignore pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}
