// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/invowk/pyenvs/internal/logging"
)

type (
	// Disposer releases whatever a component holds.
	Disposer interface {
		Dispose() error
	}

	// DisposerFunc adapts a plain function to Disposer.
	DisposerFunc func() error

	// Disposables is a batch of Disposers torn down together. Items added
	// after Dispose are disposed immediately.
	Disposables struct {
		logger *log.Logger

		mu       sync.Mutex
		items    []Disposer
		disposed bool
	}
)

// Dispose calls f.
func (f DisposerFunc) Dispose() error {
	return f()
}

// NewDisposables returns a batch holding items. A nil logger discards.
func NewDisposables(logger *log.Logger, items ...Disposer) *Disposables {
	d := &Disposables{logger: logging.OrDiscard(logger)}
	d.Push(items...)
	return d
}

// Push adds items to the batch. Nil items are skipped.
func (d *Disposables) Push(items ...Disposer) {
	var late []Disposer
	d.mu.Lock()
	for _, it := range items {
		if it == nil {
			continue
		}
		if d.disposed {
			late = append(late, it)
			continue
		}
		d.items = append(d.items, it)
	}
	d.mu.Unlock()

	if len(late) > 0 {
		_ = disposeAll(d.logger, late)
	}
}

// Len returns the number of items waiting for disposal.
func (d *Disposables) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Dispose tears down every item concurrently and waits for all of them.
// Failures are logged with the item index and joined into the result.
// Later calls return nil.
func (d *Disposables) Dispose() error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return nil
	}
	d.disposed = true
	items := d.items
	d.items = nil
	d.mu.Unlock()

	return disposeAll(d.logger, items)
}

func disposeAll(logger *log.Logger, items []Disposer) error {
	errs := make([]error, len(items))
	var g errgroup.Group
	for i, it := range items {
		g.Go(func() error {
			if err := it.Dispose(); err != nil {
				logger.Warn("dispose failed", "index", i, "error", err)
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
