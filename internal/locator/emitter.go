// SPDX-License-Identifier: MPL-2.0

package locator

import "sync"

// Emitter is a publish/subscribe channel for one event type. The zero value
// is ready to use.
type Emitter[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
	// order keeps handlers firing in subscription order.
	order []int
}

// Subscribe registers fn and returns a function that unregisters it. The
// returned function is safe to call more than once.
func (e *Emitter[T]) Subscribe(fn func(T)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[int]func(T))
	}
	id := e.next
	e.next++
	e.subs[id] = fn
	e.order = append(e.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs, id)
			for i, candidate := range e.order {
				if candidate == id {
					e.order = append(e.order[:i], e.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Fire delivers evt to every current subscriber. Handlers run synchronously
// on the caller's goroutine, outside the emitter's lock, so they may
// subscribe or unsubscribe.
func (e *Emitter[T]) Fire(evt T) {
	e.mu.Lock()
	handlers := make([]func(T), 0, len(e.order))
	for _, id := range e.order {
		handlers = append(handlers, e.subs[id])
	}
	e.mu.Unlock()

	for _, fn := range handlers {
		fn(evt)
	}
}

// Len returns the number of current subscribers.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}
