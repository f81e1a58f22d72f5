// SPDX-License-Identifier: MPL-2.0

// Package envservice answers "what exactly is this interpreter?" by probing
// it on a background worker pool. Each path is probed at most once at a
// time and successful answers are kept for the life of the service.
package envservice

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/interpreter"
	"github.com/invowk/pyenvs/internal/logging"
	"github.com/invowk/pyenvs/internal/workerpool"
)

const (
	// PriorityDefault appends the request to the queue.
	PriorityDefault Priority = iota
	// PriorityHigh puts the request ahead of queued ones.
	PriorityHigh
)

type (
	// Priority selects the queue position of a request.
	Priority int

	// InspectFunc probes one interpreter.
	InspectFunc func(ctx context.Context, executable string) (*interpreter.Info, error)

	// Service caches interpreter probes.
	Service struct {
		pool     *workerpool.Pool[string, *interpreter.Info]
		logger   *log.Logger
		active   atomic.Bool
		disposed sync.Once

		mu    sync.Mutex
		cache map[string]*entry
	}

	// Option configures a Service.
	Option func(*settings)

	settings struct {
		workers int
		logger  *log.Logger
	}

	entry struct {
		done      chan struct{}
		info      *interpreter.Info
		completed atomic.Bool
	}
)

// WithWorkers sets the number of concurrent probes.
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// New returns an inactive service probing through inspect. Requests made
// before Activate wait in the queue.
func New(inspect InspectFunc, opts ...Option) *Service {
	cfg := settings{workers: workerpool.DefaultWorkers}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := logging.OrDiscard(cfg.logger)
	pool := workerpool.New[string, *interpreter.Info](cfg.workers, inspect, logging.With(logger, logging.PrefixWorkerPool))
	return &Service{
		pool:   pool,
		logger: logger,
		cache:  make(map[string]*entry),
	}
}

// Activate starts the worker pool. The pool keeps running after ctx ends,
// until Dispose. Calling it again is a no-op; a disposed service cannot be
// reactivated.
func (s *Service) Activate(ctx context.Context) error {
	if !s.active.CompareAndSwap(false, true) {
		return nil
	}
	return s.pool.Start(ctx)
}

// Dispose stops the worker pool for good. Pending requests resolve to nil.
func (s *Service) Dispose() error {
	s.disposed.Do(s.pool.Stop)
	return nil
}

// GetEnvironmentInfo returns the probe result for executable. Concurrent and
// repeated requests for the same path share one probe. A failed probe
// yields nil and is forgotten so the next request retries. Only ctx ending
// first is an error.
func (s *Service) GetEnvironmentInfo(ctx context.Context, executable string, priority Priority) (*interpreter.Info, error) {
	s.mu.Lock()
	e, ok := s.cache[executable]
	if !ok {
		e = &entry{done: make(chan struct{})}
		s.cache[executable] = e
		s.mu.Unlock()
		s.enqueue(executable, e, priority)
	} else {
		s.mu.Unlock()
	}

	select {
	case <-e.done:
		return e.info, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsInfoProvided reports whether a successful probe result for executable
// is available without waiting.
func (s *Service) IsInfoProvided(executable string) bool {
	s.mu.Lock()
	e, ok := s.cache[executable]
	s.mu.Unlock()
	return ok && e.completed.Load()
}

func (s *Service) enqueue(executable string, e *entry, priority Priority) {
	pos := workerpool.Back
	if priority == PriorityHigh {
		pos = workerpool.Front
	}
	results := s.pool.AddToQueue(executable, pos)
	go func() {
		res := <-results
		if res.Err != nil || res.Value == nil || res.Value.Version.IsEmpty() {
			s.logger.Debug("inspection failed", "executable", executable, "error", res.Err)
			s.mu.Lock()
			if s.cache[executable] == e {
				delete(s.cache, executable)
			}
			s.mu.Unlock()
		} else {
			e.info = res.Value
			e.completed.Store(true)
		}
		close(e.done)
	}()
}
