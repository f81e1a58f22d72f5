// SPDX-License-Identifier: MPL-2.0

// Package workerpool runs queued tasks on a bounded number of goroutines.
// Tasks can be queued before the pool starts; they run once it does.
package workerpool

import (
	"container/list"
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/core/lifecycle"
	"github.com/invowk/pyenvs/internal/logging"
)

// DefaultWorkers is the pool size used when none is given.
const DefaultWorkers = 2

const (
	// Back appends a task to the queue.
	Back Position = iota
	// Front puts a task ahead of everything queued.
	Front
)

// ErrStopped is reported for tasks still queued when the pool stops, and
// for tasks added afterwards.
var ErrStopped = errors.New("worker pool stopped")

type (
	// Position selects where a task enters the queue.
	Position int

	// Result is the outcome of one task.
	Result[R any] struct {
		Value R
		Err   error
	}

	// Pool runs fn for every queued input on a fixed number of workers.
	Pool[T, R any] struct {
		base    *lifecycle.Base
		workers int
		fn      func(ctx context.Context, input T) (R, error)
		logger  *log.Logger

		mu     sync.Mutex
		queue  *list.List
		closed bool
		// wake holds at most one token; a worker that takes a task re-arms
		// it while work remains.
		wake chan struct{}
	}

	task[T, R any] struct {
		input T
		done  chan Result[R]
	}
)

// New returns an inert pool. Call Start to begin processing.
func New[T, R any](workers int, fn func(ctx context.Context, input T) (R, error), logger *log.Logger) *Pool[T, R] {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool[T, R]{
		base:    lifecycle.New(),
		workers: workers,
		fn:      fn,
		logger:  logging.OrDiscard(logger),
		queue:   list.New(),
		wake:    make(chan struct{}, 1),
	}
}

// AddToQueue schedules input and returns a channel that receives exactly
// one Result.
func (p *Pool[T, R]) AddToQueue(input T, pos Position) <-chan Result[R] {
	t := &task[T, R]{input: input, done: make(chan Result[R], 1)}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		t.done <- Result[R]{Err: ErrStopped}
		return t.done
	}
	if pos == Front {
		p.queue.PushFront(t)
	} else {
		p.queue.PushBack(t)
	}
	p.mu.Unlock()

	p.signal()
	return t.done
}

// Len returns the number of tasks waiting for a worker.
func (p *Pool[T, R]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

// State returns the pool's lifecycle state.
func (p *Pool[T, R]) State() lifecycle.State {
	return p.base.State()
}

// Start launches the workers. They run until Stop: ctx contributes its
// values but not its cancellation. A ctx that is already done fails the pool.
func (p *Pool[T, R]) Start(ctx context.Context) error {
	parent := ctx
	if ctx.Err() == nil {
		parent = context.WithoutCancel(ctx)
	}
	if err := p.base.BeginStart(parent); err != nil {
		return err
	}
	for i := range p.workers {
		p.base.Go(func(ctx context.Context) { p.work(ctx, i) })
	}
	p.base.MarkRunning()
	p.logger.Debug("started", "workers", p.workers)
	return nil
}

// Stop cancels the workers, waits for them and fails every task that never
// ran with ErrStopped. Tasks in progress see their context cancelled.
func (p *Pool[T, R]) Stop() {
	p.base.BeginStop()
	p.base.FinishStop()

	p.mu.Lock()
	p.closed = true
	pending := p.queue
	p.queue = list.New()
	p.mu.Unlock()

	for e := pending.Front(); e != nil; e = e.Next() {
		e.Value.(*task[T, R]).done <- Result[R]{Err: ErrStopped}
	}
	if pending.Len() > 0 {
		p.logger.Debug("dropped queued tasks", "count", pending.Len())
	}
}

func (p *Pool[T, R]) work(ctx context.Context, id int) {
	for {
		t := p.next()
		if t == nil {
			select {
			case <-p.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			// Put it back for Stop to fail.
			p.mu.Lock()
			p.queue.PushFront(t)
			p.mu.Unlock()
			return
		}
		value, err := p.fn(ctx, t.input)
		if err != nil {
			p.logger.Debug("task failed", "worker", id, "error", err)
		}
		t.done <- Result[R]{Value: value, Err: err}
	}
}

func (p *Pool[T, R]) next() *task[T, R] {
	p.mu.Lock()
	front := p.queue.Front()
	var t *task[T, R]
	if front != nil {
		t = p.queue.Remove(front).(*task[T, R])
	}
	more := p.queue.Len() > 0
	p.mu.Unlock()
	if more {
		p.signal()
	}
	return t
}

func (p *Pool[T, R]) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}
