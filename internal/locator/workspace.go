// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/invowk/pyenvs/internal/envinfo"
)

type (
	// WorkspaceFactory builds the locators scoped to one workspace root.
	WorkspaceFactory func(root *url.URL) []Locator

	// WorkspaceFolders is the host's set of workspace roots.
	WorkspaceFolders interface {
		Roots() []*url.URL
		OnAdded(fn func(*url.URL)) (unsubscribe func())
		OnRemoved(fn func(*url.URL)) (unsubscribe func())
	}

	// Folders is an in-memory WorkspaceFolders.
	Folders struct {
		mu      sync.Mutex
		roots   []*url.URL
		added   Emitter[*url.URL]
		removed Emitter[*url.URL]
	}

	// WorkspaceLocators keeps one composite locator per workspace root.
	// Records found under a root carry it as their search location, which
	// routes later resolution back to the same root.
	WorkspaceLocators struct {
		factories []WorkspaceFactory

		mu    sync.RWMutex
		roots map[string]*workspaceRoot
		order []string

		changed Emitter[ChangeEvent]
		// unsubs release the folder subscriptions taken by Activate.
		unsubs []func()
	}

	workspaceRoot struct {
		uri     *url.URL
		chain   *Locators
		locator *DisableableLocator
		unsub   func()
	}
)

// NewFolders returns a folder set holding roots.
func NewFolders(roots ...*url.URL) *Folders {
	return &Folders{roots: slices.Clone(roots)}
}

// Roots returns a copy of the current roots.
func (f *Folders) Roots() []*url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.roots)
}

// Add appends root unless it is already present, then notifies OnAdded
// subscribers.
func (f *Folders) Add(root *url.URL) {
	f.mu.Lock()
	if slices.ContainsFunc(f.roots, sameURL(root)) {
		f.mu.Unlock()
		return
	}
	f.roots = append(f.roots, root)
	f.mu.Unlock()
	f.added.Fire(root)
}

// Remove drops root, then notifies OnRemoved subscribers. Unknown roots are
// ignored.
func (f *Folders) Remove(root *url.URL) {
	f.mu.Lock()
	n := len(f.roots)
	f.roots = slices.DeleteFunc(f.roots, sameURL(root))
	removed := len(f.roots) != n
	f.mu.Unlock()
	if removed {
		f.removed.Fire(root)
	}
}

// OnAdded implements WorkspaceFolders.
func (f *Folders) OnAdded(fn func(*url.URL)) func() { return f.added.Subscribe(fn) }

// OnRemoved implements WorkspaceFolders.
func (f *Folders) OnRemoved(fn func(*url.URL)) func() { return f.removed.Subscribe(fn) }

func sameURL(u *url.URL) func(*url.URL) bool {
	key := u.String()
	return func(other *url.URL) bool { return other.String() == key }
}

// NewWorkspaceLocators returns an empty fan-out over factories. Roots are
// added through Activate or AddRoot.
func NewWorkspaceLocators(factories ...WorkspaceFactory) *WorkspaceLocators {
	return &WorkspaceLocators{
		factories: factories,
		roots:     make(map[string]*workspaceRoot),
	}
}

// Activate adds every current root of folders and follows its added and
// removed notifications until Dispose.
func (w *WorkspaceLocators) Activate(folders WorkspaceFolders) {
	for _, root := range folders.Roots() {
		w.AddRoot(root)
	}
	unsubs := []func(){folders.OnAdded(w.AddRoot), folders.OnRemoved(w.RemoveRoot)}
	w.mu.Lock()
	w.unsubs = append(w.unsubs, unsubs...)
	w.mu.Unlock()
}

// AddRoot builds the locators for root, replacing any previous set.
func (w *WorkspaceLocators) AddRoot(root *url.URL) {
	key := root.String()
	w.removeRoot(key, false)

	var locators []Locator
	for _, factory := range w.factories {
		locators = append(locators, factory(root)...)
	}
	chain := NewLocators(locators...)
	entry := &workspaceRoot{uri: root, chain: chain, locator: NewDisableable(chain)}
	entry.unsub = entry.locator.OnChanged(func(evt ChangeEvent) {
		if evt.SearchLocation == nil {
			evt.SearchLocation = root
		}
		w.changed.Fire(evt)
	})

	w.mu.Lock()
	w.roots[key] = entry
	w.order = append(w.order, key)
	w.mu.Unlock()

	w.changed.Fire(ChangeEvent{SearchLocation: root})
}

// RemoveRoot disables the locators of root. Callers still holding them see
// an empty locator.
func (w *WorkspaceLocators) RemoveRoot(root *url.URL) {
	w.removeRoot(root.String(), true)
}

func (w *WorkspaceLocators) removeRoot(key string, notify bool) {
	w.mu.Lock()
	entry, ok := w.roots[key]
	if ok {
		delete(w.roots, key)
		w.order = slices.DeleteFunc(w.order, func(k string) bool { return k == key })
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	entry.locator.Disable()
	entry.unsub()
	_ = entry.chain.Dispose()
	if notify {
		w.changed.Fire(ChangeEvent{SearchLocation: entry.uri})
	}
}

// Roots returns the current roots in the order they were added.
func (w *WorkspaceLocators) Roots() []*url.URL {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*url.URL, 0, len(w.order))
	for _, key := range w.order {
		out = append(out, w.roots[key].uri)
	}
	return out
}

// IterEnvs implements Locator. A query with search locations only reaches
// the roots that can hold or contain those locations.
func (w *WorkspaceLocators) IterEnvs(ctx context.Context, q Query) *EnvsIterator {
	w.mu.RLock()
	var selected []Locator
	for _, key := range w.order {
		entry := w.roots[key]
		if q.SearchLocations != nil && !matchURI(entry.uri, q.SearchLocations) {
			continue
		}
		selected = append(selected, entry.locator)
	}
	w.mu.RUnlock()
	return concatIters(ctx, q, selected)
}

// ResolveEnv implements Locator. A record carrying a known search location
// goes straight to that root; otherwise every root is asked in order.
func (w *WorkspaceLocators) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	w.mu.RLock()
	if entry, ok := w.roots[env.SearchLocationKey()]; ok {
		w.mu.RUnlock()
		return entry.locator.ResolveEnv(ctx, env)
	}
	all := make([]Locator, 0, len(w.order))
	for _, key := range w.order {
		all = append(all, w.roots[key].locator)
	}
	w.mu.RUnlock()
	return resolveFirst(ctx, env, all)
}

// OnChanged implements Locator.
func (w *WorkspaceLocators) OnChanged(fn func(ChangeEvent)) func() {
	return w.changed.Subscribe(fn)
}

// Dispose stops following the folders and disables every root.
func (w *WorkspaceLocators) Dispose() error {
	w.mu.Lock()
	keys := slices.Clone(w.order)
	unsubs := w.unsubs
	w.unsubs = nil
	w.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
	for _, key := range keys {
		w.removeRoot(key, false)
	}
	return nil
}

// matchURI reports whether root is relevant to any of the queried
// locations: same scheme and host, and either the same path or one path
// nested under the other.
func matchURI(root *url.URL, locations []*url.URL) bool {
	rootPath := withTrailingSlash(root.Path)
	for _, loc := range locations {
		if loc == nil || loc.Scheme != root.Scheme || loc.Host != root.Host {
			continue
		}
		locPath := withTrailingSlash(loc.Path)
		if locPath == rootPath || strings.HasPrefix(locPath, rootPath) || strings.HasPrefix(rootPath, locPath) {
			return true
		}
	}
	return false
}

func withTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
