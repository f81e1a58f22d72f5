// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/invowk/pyenvs/internal/envinfo"
)

type (
	// Locator is a source of discovered Python environments.
	Locator interface {
		// IterEnvs starts an iteration. The returned iterator stops producing
		// once ctx is cancelled.
		IterEnvs(ctx context.Context, q Query) *EnvsIterator
		// ResolveEnv finds a single environment matching env's executable
		// (and, where the locator can use it, its search location). A miss is
		// (nil, nil); only cancellation or scan failures are errors.
		ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error)
		// OnChanged registers fn for change notifications and returns a
		// function that unregisters it.
		OnChanged(fn func(ChangeEvent)) (unsubscribe func())
	}

	// Query scopes an iteration. The zero value asks for everything.
	Query struct {
		// SearchLocations scopes the iteration to workspace environments
		// under these locations; global sources are left out. Nil means no
		// restriction, an empty non-nil slice matches nothing.
		SearchLocations []*url.URL
		// Kinds, when non-empty, restricts the iteration to these kinds.
		// Leaf locators that know their kind up front use it to skip work.
		Kinds []envinfo.Kind
	}

	// ChangeEvent signals that consumers should re-iterate. It carries no
	// diff; SearchLocation, when set, scopes the change to one workspace root.
	ChangeEvent struct {
		SearchLocation *url.URL
		Kind           envinfo.Kind
	}

	// UpdateEvent refines a record already yielded on the primary stream.
	UpdateEvent struct {
		// Index is the position of the record in the primary stream.
		Index int
		Old   *envinfo.EnvInfo
		// New replaces the record; nil removes it.
		New *envinfo.EnvInfo
	}
)

// Key renders the query as a stable cache key.
func (q Query) Key() string {
	locs := make([]string, 0, len(q.SearchLocations))
	for _, loc := range q.SearchLocations {
		locs = append(locs, loc.String())
	}
	slices.Sort(locs)
	kinds := make([]string, 0, len(q.Kinds))
	for _, k := range q.Kinds {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	scope := "*"
	if q.SearchLocations != nil {
		scope = strings.Join(locs, ",")
	}
	return scope + "|" + strings.Join(kinds, ",")
}

// WantsKind reports whether records of kind k pass the query's kind filter.
func (q Query) WantsKind(k envinfo.Kind) bool {
	return len(q.Kinds) == 0 || slices.Contains(q.Kinds, k)
}

// ResolvePath resolves the environment owning the executable at path.
func ResolvePath(ctx context.Context, l Locator, path string) (*envinfo.EnvInfo, error) {
	env := envinfo.FromPath(path)
	if env == nil {
		return nil, nil
	}
	return l.ResolveEnv(ctx, env)
}
