// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"sync"

	"github.com/invowk/pyenvs/internal/envinfo"
)

// Locators is the union of several locators. Iteration concatenates the
// sub-locators in order; resolution returns the first hit.
type Locators struct {
	locators []Locator
	changed  Emitter[ChangeEvent]
	unsubs   []func()
}

// NewLocators returns the union of locators. Change events from every
// sub-locator are re-emitted unchanged.
func NewLocators(locators ...Locator) *Locators {
	l := &Locators{locators: locators}
	for _, sub := range locators {
		l.unsubs = append(l.unsubs, sub.OnChanged(l.changed.Fire))
	}
	return l
}

// IterEnvs implements Locator.
func (l *Locators) IterEnvs(ctx context.Context, q Query) *EnvsIterator {
	return concatIters(ctx, q, l.locators)
}

// ResolveEnv implements Locator.
func (l *Locators) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	return resolveFirst(ctx, env, l.locators)
}

// OnChanged implements Locator.
func (l *Locators) OnChanged(fn func(ChangeEvent)) func() {
	return l.changed.Subscribe(fn)
}

// Dispose stops listening to the sub-locators.
func (l *Locators) Dispose() error {
	for _, unsub := range l.unsubs {
		unsub()
	}
	l.unsubs = nil
	return nil
}

// concatIters yields every record of each locator in turn. The remaining
// updates of a finished sub-iteration keep flowing, re-indexed, while the
// next one runs.
func concatIters(ctx context.Context, q Query, locators []Locator) *EnvsIterator {
	return Produce(ctx, func(ctx context.Context, sink *Sink) {
		var wg sync.WaitGroup
		defer wg.Wait()

		for _, sub := range locators {
			it := sub.IterEnvs(ctx, q)
			base := sink.Yielded()
			envs, updates := it.Envs(), it.Updates()

			for envs != nil {
				select {
				case env, ok := <-envs:
					if !ok {
						envs = nil
						continue
					}
					if _, ok := sink.Yield(env); !ok {
						return
					}
				case evt, ok := <-updates:
					if !ok {
						updates = nil
						continue
					}
					sink.Update(shift(evt, base))
				case <-ctx.Done():
					return
				}
			}

			if updates == nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case evt, ok := <-updates:
						if !ok {
							return
						}
						sink.Update(shift(evt, base))
					case <-ctx.Done():
						return
					}
				}
			}()
		}
	})
}

func shift(evt UpdateEvent, base int) UpdateEvent {
	evt.Index += base
	return evt
}

func resolveFirst(ctx context.Context, env *envinfo.EnvInfo, locators []Locator) (*envinfo.EnvInfo, error) {
	for _, sub := range locators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resolved, err := sub.ResolveEnv(ctx, env)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			return resolved, nil
		}
	}
	return nil, nil
}
