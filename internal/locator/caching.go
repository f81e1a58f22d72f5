// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/logging"
)

type (
	// CachingLocator memoizes the final result of the wrapped locator's
	// iterations, keyed by query. A change event from the wrapped locator
	// drops the cache. Concurrent iterations that miss the cache share one
	// scan.
	CachingLocator struct {
		wrapped Locator
		logger  *log.Logger

		refreshOnIterate bool

		mu    sync.Mutex
		cache map[string][]*envinfo.EnvInfo
		// gen increments on every invalidation; scans started under an older
		// generation do not populate the cache.
		gen   uint64
		group singleflight.Group

		changed Emitter[ChangeEvent]
		unsub   func()
	}

	// CachingOption configures a CachingLocator.
	CachingOption func(*CachingLocator)
)

// WithCacheLogger sets the logger.
func WithCacheLogger(l *log.Logger) CachingOption {
	return func(c *CachingLocator) { c.logger = logging.OrDiscard(l) }
}

// WithRefreshOnIterate makes every cache hit also start a background scan.
// When the scan finds a different set of executables, the cache is replaced
// and a change event fires.
func WithRefreshOnIterate() CachingOption {
	return func(c *CachingLocator) { c.refreshOnIterate = true }
}

// NewCachingLocator wraps wrapped with a result cache.
func NewCachingLocator(wrapped Locator, opts ...CachingOption) *CachingLocator {
	c := &CachingLocator{
		wrapped: wrapped,
		logger:  logging.Discard(),
		cache:   make(map[string][]*envinfo.EnvInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsub = wrapped.OnChanged(c.invalidate)
	return c
}

// IterEnvs implements Locator. A cached result is served as a snapshot
// taken at call time.
func (c *CachingLocator) IterEnvs(ctx context.Context, q Query) *EnvsIterator {
	key := q.Key()
	c.mu.Lock()
	cached, ok := c.cache[key]
	gen := c.gen
	c.mu.Unlock()

	if ok {
		if c.refreshOnIterate {
			c.refreshInBackground(ctx, key, q, gen, cached)
		}
		return FromSlice(ctx, copyEnvs(cached))
	}

	// Join or start the scan before returning so that every caller that
	// missed the cache lands in the same flight.
	ch := c.scan(ctx, "", key, q, gen)
	return Produce(ctx, func(ctx context.Context, sink *Sink) {
		select {
		case res := <-ch:
			if res.Err != nil {
				c.logger.Debug("scan failed", "query", key, "error", res.Err)
				return
			}
			envs, _ := res.Val.([]*envinfo.EnvInfo)
			for _, env := range copyEnvs(envs) {
				if _, ok := sink.Yield(env); !ok {
					return
				}
			}
		case <-ctx.Done():
		}
	})
}

// ResolveEnv implements Locator. Cached records are consulted first.
func (c *CachingLocator) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	if env == nil {
		return nil, nil
	}
	match := envinfo.EnvMatcher(env.Executable.Filename)
	c.mu.Lock()
	for _, envs := range c.cache {
		for _, cached := range envs {
			if match(cached) {
				c.mu.Unlock()
				return cached.Copy(), nil
			}
		}
	}
	c.mu.Unlock()
	return c.wrapped.ResolveEnv(ctx, env)
}

// OnChanged implements Locator.
func (c *CachingLocator) OnChanged(fn func(ChangeEvent)) func() {
	return c.changed.Subscribe(fn)
}

// Invalidate drops every cached result without emitting an event.
func (c *CachingLocator) Invalidate() {
	c.mu.Lock()
	c.gen++
	clear(c.cache)
	c.mu.Unlock()
}

// Dispose stops listening to the wrapped locator.
func (c *CachingLocator) Dispose() error {
	c.unsub()
	return nil
}

func (c *CachingLocator) invalidate(evt ChangeEvent) {
	c.Invalidate()
	c.changed.Fire(evt)
}

// scan shares one wrapped iteration among every caller asking for the same
// query in the same generation. The scan outlives a caller that gives up.
func (c *CachingLocator) scan(ctx context.Context, flight, key string, q Query, gen uint64) <-chan singleflight.Result {
	flightKey := flight + key + "#" + strconv.FormatUint(gen, 10)
	scanCtx := context.WithoutCancel(ctx)
	return c.group.DoChan(flightKey, func() (any, error) {
		envs, err := Collect(scanCtx, c.wrapped.IterEnvs(scanCtx, q))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.cache[key] = envs
		}
		c.mu.Unlock()
		return envs, nil
	})
}

func (c *CachingLocator) refreshInBackground(ctx context.Context, key string, q Query, gen uint64, previous []*envinfo.EnvInfo) {
	ch := c.scan(ctx, "refresh|", key, q, gen)
	go func() {
		res := <-ch
		if res.Err != nil {
			return
		}
		envs, _ := res.Val.([]*envinfo.EnvInfo)
		if !sameExecutables(previous, envs) {
			c.logger.Debug("refresh found changes", "query", key, "before", len(previous), "after", len(envs))
			c.changed.Fire(ChangeEvent{})
		}
	}()
}

func copyEnvs(envs []*envinfo.EnvInfo) []*envinfo.EnvInfo {
	out := make([]*envinfo.EnvInfo, len(envs))
	for i, env := range envs {
		out[i] = env.Copy()
	}
	return out
}

func sameExecutables(a, b []*envinfo.EnvInfo) bool {
	if len(a) != len(b) {
		return false
	}
	names := func(envs []*envinfo.EnvInfo) []string {
		out := make([]string, len(envs))
		for i, env := range envs {
			out[i] = env.Executable.Filename
		}
		slices.Sort(out)
		return out
	}
	return slices.Equal(names(a), names(b))
}
