// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrNotStartable is returned by Start when the component already left the
// created state.
var ErrNotStartable = errors.New("component cannot be started")

// Base is the embedded lifecycle of a component. It is single-use: once
// stopped or failed, build a new one.
type Base struct {
	state atomic.Int32

	mu      sync.Mutex
	lastErr error

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running chan struct{}
}

// New returns a Base in StateCreated.
func New() *Base {
	b := &Base{running: make(chan struct{})}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the component is in StateRunning.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// LastError returns the error that failed the component, or nil.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// BeginStart moves Created to Starting and derives the component context
// from parent. A parent that is already cancelled fails the component.
func (b *Base) BeginStart(parent context.Context) error {
	if err := parent.Err(); err != nil {
		err = fmt.Errorf("context cancelled before start: %w", err)
		b.Fail(err)
		return err
	}
	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("%w: state %s", ErrNotStartable, b.State())
	}
	b.ctx, b.cancel = context.WithCancel(parent)
	return nil
}

// MarkRunning moves Starting to Running and releases WaitRunning callers.
func (b *Base) MarkRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.running)
	}
}

// Fail records err and moves to StateFailed, cancelling the context.
func (b *Base) Fail(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))
	if b.cancel != nil {
		b.cancel()
	}
}

// BeginStop moves a started component to Stopping and cancels its context.
// It reports false when there is nothing to stop; a never-started component
// goes straight to StateStopped.
func (b *Base) BeginStop() bool {
	for {
		current := b.State()
		switch current {
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				b.cancel()
				return true
			}
		default:
			return false
		}
	}
}

// FinishStop waits for every goroutine started through Go, then moves to
// StateStopped.
func (b *Base) FinishStop() {
	b.wg.Wait()
	b.state.Store(int32(StateStopped))
}

// WaitRunning blocks until the component runs or ctx is done.
func (b *Base) WaitRunning(ctx context.Context) error {
	select {
	case <-b.running:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for component: %w", ctx.Err())
	}
}

// Context returns the component context; nil before BeginStart.
func (b *Base) Context() context.Context {
	return b.ctx
}

// Go runs fn on a tracked goroutine with the component context.
func (b *Base) Go(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
}
