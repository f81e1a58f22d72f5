// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"context"
	"sync"
)

// Activator is a component that needs a one-time start.
type Activator interface {
	Activate(ctx context.Context) error
}

// Activatable guards a component so that it is activated at most once and
// disposed at most once. Concurrent callers of Activate wait for the first
// activation and share its result.
type Activatable struct {
	target Activator

	activateOnce sync.Once
	activateErr  error

	disposeOnce sync.Once
	disposeErr  error
}

// NewActivatable wraps target.
func NewActivatable(target Activator) *Activatable {
	return &Activatable{target: target}
}

// Activate runs the wrapped activation the first time it is called.
func (a *Activatable) Activate(ctx context.Context) error {
	a.activateOnce.Do(func() {
		a.activateErr = a.target.Activate(ctx)
	})
	return a.activateErr
}

// Dispose disposes the wrapped component when it implements Disposer. A
// component that was never activated is still disposed.
func (a *Activatable) Dispose() error {
	a.disposeOnce.Do(func() {
		if d, ok := a.target.(Disposer); ok {
			a.disposeErr = d.Dispose()
		}
	})
	return a.disposeErr
}
