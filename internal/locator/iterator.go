// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"sync"

	"github.com/invowk/pyenvs/internal/envinfo"
)

type (
	// EnvsIterator is the lazy result of an iteration: a finite primary
	// stream of records and a side stream of updates to records already
	// yielded. Updates for a record always arrive after the record itself.
	//
	// The update stream may outlive the primary one. Consumers either drain
	// both until closed or cancel the context the iteration was started with;
	// updates are buffered, so reading Envs to the end before touching
	// Updates never blocks the producer.
	EnvsIterator struct {
		envs    chan *envinfo.EnvInfo
		updates chan UpdateEvent
	}

	// Sink is the producer side of an EnvsIterator.
	Sink struct {
		ctx       context.Context
		envs      chan *envinfo.EnvInfo
		envsOnce  sync.Once
		ended     bool
		yielded   int
		mu        sync.Mutex
		queue     []UpdateEvent
		signal    chan struct{}
		producing bool
	}
)

// Envs returns the primary stream, closed when exhausted or cancelled.
func (it *EnvsIterator) Envs() <-chan *envinfo.EnvInfo { return it.envs }

// Updates returns the refinement stream, closed after the last update.
func (it *EnvsIterator) Updates() <-chan UpdateEvent { return it.updates }

// Produce runs fn on its own goroutine and exposes what it yields as an
// EnvsIterator. Both streams close once fn returns and the queued updates
// have been delivered, or as soon as ctx is cancelled.
func Produce(ctx context.Context, fn func(ctx context.Context, sink *Sink)) *EnvsIterator {
	it := &EnvsIterator{
		envs:    make(chan *envinfo.EnvInfo),
		updates: make(chan UpdateEvent),
	}
	sink := &Sink{
		ctx:       ctx,
		envs:      it.envs,
		signal:    make(chan struct{}, 1),
		producing: true,
	}

	go sink.forwardUpdates(it.updates)
	go func() {
		defer sink.finish()
		fn(ctx, sink)
	}()
	return it
}

// Yield sends env on the primary stream and returns its index. It reports
// false once the consumer's context is cancelled or EndEnvs was called.
func (s *Sink) Yield(env *envinfo.EnvInfo) (int, bool) {
	if s.ctx.Err() != nil {
		return -1, false
	}
	s.mu.Lock()
	idx, ended := s.yielded, s.ended
	s.mu.Unlock()
	if ended {
		return -1, false
	}
	select {
	case s.envs <- env:
		s.mu.Lock()
		s.yielded++
		s.mu.Unlock()
		return idx, true
	case <-s.ctx.Done():
		return -1, false
	}
}

// Update queues a refinement for a record already yielded. It never blocks.
func (s *Sink) Update(evt UpdateEvent) bool {
	if s.ctx.Err() != nil {
		return false
	}
	s.mu.Lock()
	s.queue = append(s.queue, evt)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

// Yielded returns how many records went out on the primary stream.
func (s *Sink) Yielded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.yielded
}

// EndEnvs closes the primary stream early; updates may still follow.
func (s *Sink) EndEnvs() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	s.envsOnce.Do(func() { close(s.envs) })
}

func (s *Sink) finish() {
	s.EndEnvs()
	s.mu.Lock()
	s.producing = false
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// forwardUpdates delivers queued updates in order and closes out once the
// producer is done and the queue is empty.
func (s *Sink) forwardUpdates(out chan<- UpdateEvent) {
	defer close(out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			done := !s.producing
			s.mu.Unlock()
			if done {
				return
			}
			select {
			case <-s.signal:
				continue
			case <-s.ctx.Done():
				return
			}
		}
		evt := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case out <- evt:
		case <-s.ctx.Done():
			return
		}
	}
}

// FromSlice returns an iterator over envs with no updates.
func FromSlice(ctx context.Context, envs []*envinfo.EnvInfo) *EnvsIterator {
	return Produce(ctx, func(_ context.Context, sink *Sink) {
		for _, env := range envs {
			if _, ok := sink.Yield(env); !ok {
				return
			}
		}
	})
}

// NoEnvs returns an iterator that yields nothing.
func NoEnvs(ctx context.Context) *EnvsIterator {
	return FromSlice(ctx, nil)
}
