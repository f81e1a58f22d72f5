// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"sync/atomic"

	"github.com/invowk/pyenvs/internal/envinfo"
)

// DisableableLocator wraps a locator that can be switched off. A disabled
// locator yields nothing, resolves nothing and stays silent, but keeps the
// wrapped locator intact for callers still holding it.
type DisableableLocator struct {
	wrapped  Locator
	disabled atomic.Bool
}

// NewDisableable returns an enabled wrapper around wrapped.
func NewDisableable(wrapped Locator) *DisableableLocator {
	return &DisableableLocator{wrapped: wrapped}
}

// Enable switches the locator back on.
func (d *DisableableLocator) Enable() { d.disabled.Store(false) }

// Disable switches the locator off.
func (d *DisableableLocator) Disable() { d.disabled.Store(true) }

// Enabled reports the current state.
func (d *DisableableLocator) Enabled() bool { return !d.disabled.Load() }

// IterEnvs implements Locator.
func (d *DisableableLocator) IterEnvs(ctx context.Context, q Query) *EnvsIterator {
	if d.disabled.Load() {
		return NoEnvs(ctx)
	}
	return d.wrapped.IterEnvs(ctx, q)
}

// ResolveEnv implements Locator.
func (d *DisableableLocator) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	if d.disabled.Load() {
		return nil, nil
	}
	return d.wrapped.ResolveEnv(ctx, env)
}

// OnChanged implements Locator. Events are dropped while disabled.
func (d *DisableableLocator) OnChanged(fn func(ChangeEvent)) func() {
	return d.wrapped.OnChanged(func(evt ChangeEvent) {
		if !d.disabled.Load() {
			fn(evt)
		}
	})
}
