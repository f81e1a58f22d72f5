// SPDX-License-Identifier: MPL-2.0

package workerpool

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/invowk/pyenvs/internal/core/lifecycle"
)

func await[R any](t *testing.T, ch <-chan Result[R]) Result[R] {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a result")
		return Result[R]{}
	}
}

func TestPoolIsInertUntilStarted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := New(1, func(_ context.Context, in string) (int, error) {
		calls.Add(1)
		return len(in), nil
	}, nil)

	ch := p.AddToQueue("python", Back)
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 0 || p.Len() != 1 {
		t.Fatalf("task ran before Start (calls %d, queued %d)", calls.Load(), p.Len())
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()
	if res := await(t, ch); res.Err != nil || res.Value != 6 {
		t.Errorf("result = %+v", res)
	}
	if p.State() != lifecycle.StateRunning {
		t.Errorf("state = %s", p.State())
	}
}

func TestPoolRunsUntilStop(t *testing.T) {
	t.Parallel()

	p := New(1, func(_ context.Context, in string) (int, error) { return len(in), nil }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	cancel()

	if res := await(t, p.AddToQueue("python3", Back)); res.Err != nil || res.Value != 7 {
		t.Errorf("result after start context ended = %+v", res)
	}
	if p.State() != lifecycle.StateRunning {
		t.Errorf("state = %s", p.State())
	}
}

func TestPoolStartWithDoneContext(t *testing.T) {
	t.Parallel()

	p := New(1, func(context.Context, int) (int, error) { return 0, nil }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Start(ctx); err == nil {
		p.Stop()
		t.Error("Start() with a done context succeeded")
	}
}

func TestPoolFrontJumpsQueue(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		order []string
	)
	p := New(1, func(_ context.Context, in string) (string, error) {
		mu.Lock()
		order = append(order, in)
		mu.Unlock()
		return in, nil
	}, nil)

	a := p.AddToQueue("a", Back)
	b := p.AddToQueue("b", Back)
	c := p.AddToQueue("c", Front)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	for _, ch := range []<-chan Result[string]{a, b, c} {
		await(t, ch)
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(order, []string{"c", "a", "b"}) {
		t.Errorf("order = %v, want [c a b]", order)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	p := New(2, func(_ context.Context, _ int) (int, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	}, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	var chans []<-chan Result[int]
	for i := range 8 {
		chans = append(chans, p.AddToQueue(i, Back))
	}
	for _, ch := range chans {
		await(t, ch)
	}
	if got := peak.Load(); got > 2 || got < 1 {
		t.Errorf("peak concurrency = %d, want between 1 and 2", got)
	}
}

func TestPoolPropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := New(1, func(context.Context, int) (int, error) { return 0, boom }, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	if res := await(t, p.AddToQueue(1, Back)); !errors.Is(res.Err, boom) {
		t.Errorf("Err = %v, want boom", res.Err)
	}
}

func TestPoolStopFailsPendingTasks(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	p := New(1, func(ctx context.Context, _ int) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}, nil)

	first := p.AddToQueue(1, Back)
	second := p.AddToQueue(2, Back)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-started
	p.Stop()

	if res := await(t, first); !errors.Is(res.Err, context.Canceled) {
		t.Errorf("in-flight task Err = %v, want context.Canceled", res.Err)
	}
	if res := await(t, second); !errors.Is(res.Err, ErrStopped) {
		t.Errorf("queued task Err = %v, want ErrStopped", res.Err)
	}
	if res := await(t, p.AddToQueue(3, Back)); !errors.Is(res.Err, ErrStopped) {
		t.Errorf("late task Err = %v, want ErrStopped", res.Err)
	}
	if p.State() != lifecycle.StateStopped {
		t.Errorf("state = %s", p.State())
	}
}

func TestPoolDoubleStart(t *testing.T) {
	t.Parallel()

	p := New(0, func(context.Context, int) (int, error) { return 0, nil }, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	if err := p.Start(context.Background()); !errors.Is(err, lifecycle.ErrNotStartable) {
		t.Errorf("second Start() = %v, want ErrNotStartable", err)
	}
}
