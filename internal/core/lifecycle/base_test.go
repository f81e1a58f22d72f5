// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBaseFullLifecycle(t *testing.T) {
	t.Parallel()

	b := New()
	if b.State() != StateCreated {
		t.Fatalf("initial state = %s", b.State())
	}
	if err := b.BeginStart(context.Background()); err != nil {
		t.Fatalf("BeginStart() error = %v", err)
	}
	if b.State() != StateStarting {
		t.Errorf("state = %s, want starting", b.State())
	}

	var exited atomic.Bool
	b.Go(func(ctx context.Context) {
		<-ctx.Done()
		exited.Store(true)
	})
	b.MarkRunning()
	if !b.IsRunning() {
		t.Fatalf("state = %s, want running", b.State())
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.WaitRunning(ctx); err != nil {
		t.Errorf("WaitRunning() error = %v", err)
	}

	if !b.BeginStop() {
		t.Fatal("BeginStop() = false for a running component")
	}
	if b.State() != StateStopping {
		t.Errorf("state = %s, want stopping", b.State())
	}
	b.FinishStop()
	if b.State() != StateStopped || !exited.Load() {
		t.Errorf("state = %s, goroutine exited = %v", b.State(), exited.Load())
	}
	if b.BeginStop() {
		t.Error("second BeginStop() = true")
	}
}

func TestBaseStopBeforeStart(t *testing.T) {
	t.Parallel()

	b := New()
	if b.BeginStop() {
		t.Error("BeginStop() = true for a never-started component")
	}
	if b.State() != StateStopped {
		t.Errorf("state = %s, want stopped", b.State())
	}
	err := b.BeginStart(context.Background())
	if !errors.Is(err, ErrNotStartable) {
		t.Errorf("BeginStart() after stop = %v, want ErrNotStartable", err)
	}
}

func TestBaseCancelledParent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := New()
	if err := b.BeginStart(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("BeginStart() = %v, want context.Canceled", err)
	}
	if b.State() != StateFailed || b.LastError() == nil {
		t.Errorf("state = %s, last error = %v", b.State(), b.LastError())
	}
}

func TestBaseWaitRunningTimeout(t *testing.T) {
	t.Parallel()

	b := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.WaitRunning(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitRunning() = %v, want deadline exceeded", err)
	}
}

func TestStateValues(t *testing.T) {
	t.Parallel()

	for s := StateCreated; s <= StateFailed; s++ {
		if ok, errs := s.IsValid(); !ok {
			t.Errorf("%s invalid: %v", s, errs)
		}
		if s.String() == "unknown" {
			t.Errorf("state %d has no name", s)
		}
	}
	bad := State(42)
	ok, errs := bad.IsValid()
	if ok || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidState) {
		t.Errorf("State(42).IsValid() = %v, %v", ok, errs)
	}
	if !StateStopped.IsTerminal() || !StateFailed.IsTerminal() || StateRunning.IsTerminal() {
		t.Error("IsTerminal mismatch")
	}
}
