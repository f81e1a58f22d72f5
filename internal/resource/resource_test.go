// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/invowk/pyenvs/internal/logging"
)

type countingActivator struct {
	activations atomic.Int32
	disposals   atomic.Int32
	err         error
}

func (c *countingActivator) Activate(context.Context) error {
	c.activations.Add(1)
	return c.err
}

func (c *countingActivator) Dispose() error {
	c.disposals.Add(1)
	return nil
}

func TestDisposables_IsolatesFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.New(&buf, logging.PrefixResource, false)

	boom := errors.New("boom")
	var ran atomic.Int32
	ok := DisposerFunc(func() error {
		ran.Add(1)
		return nil
	})
	failing := DisposerFunc(func() error {
		ran.Add(1)
		return boom
	})

	d := NewDisposables(logger, ok, failing, ok)
	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}

	err := d.Dispose()
	if !errors.Is(err, boom) {
		t.Fatalf("Dispose() = %v, want boom", err)
	}
	if got := ran.Load(); got != 3 {
		t.Errorf("ran %d disposers, want 3", got)
	}
	out := buf.String()
	if !strings.Contains(out, "dispose failed") || !strings.Contains(out, "index=1") {
		t.Errorf("log output %q lacks failure record for index 1", out)
	}

	if err := d.Dispose(); err != nil {
		t.Errorf("second Dispose() = %v, want nil", err)
	}
	if got := ran.Load(); got != 3 {
		t.Errorf("second Dispose() reran disposers: %d", got)
	}
}

func TestDisposables_RunsConcurrently(t *testing.T) {
	t.Parallel()

	// Each disposer waits for the other; a sequential batch would hang.
	var wg sync.WaitGroup
	wg.Add(2)
	rendezvous := DisposerFunc(func() error {
		wg.Done()
		wg.Wait()
		return nil
	})

	d := NewDisposables(nil, rendezvous, rendezvous)
	done := make(chan error, 1)
	go func() { done <- d.Dispose() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Dispose() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Dispose() did not run items concurrently")
	}
}

func TestDisposables_PushAfterDispose(t *testing.T) {
	t.Parallel()

	d := NewDisposables(nil)
	if err := d.Dispose(); err != nil {
		t.Fatalf("Dispose() = %v", err)
	}

	var called atomic.Bool
	d.Push(nil, DisposerFunc(func() error {
		called.Store(true)
		return nil
	}))
	if !called.Load() {
		t.Error("item pushed after Dispose was not disposed immediately")
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
}

func TestActivatable_Once(t *testing.T) {
	t.Parallel()

	target := &countingActivator{err: errors.New("no watcher")}
	a := NewActivatable(target)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			if err := a.Activate(context.Background()); err == nil {
				t.Error("Activate() = nil, want shared error")
			}
		})
	}
	wg.Wait()

	if got := target.activations.Load(); got != 1 {
		t.Errorf("activations = %d, want 1", got)
	}

	_ = a.Dispose()
	_ = a.Dispose()
	if got := target.disposals.Load(); got != 1 {
		t.Errorf("disposals = %d, want 1", got)
	}
}

func TestActivatable_NonDisposer(t *testing.T) {
	t.Parallel()

	a := NewActivatable(activatorFunc(func(context.Context) error { return nil }))
	if err := a.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() = %v", err)
	}
	if err := a.Dispose(); err != nil {
		t.Errorf("Dispose() = %v, want nil", err)
	}
}

type activatorFunc func(context.Context) error

func (f activatorFunc) Activate(ctx context.Context) error { return f(ctx) }
