// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"

	"github.com/invowk/pyenvs/internal/envinfo"
)

type (
	// ReducingLocator folds records of the wrapped iteration that denote the
	// same interpreter into one. The first record of a group claims an
	// output slot; later members and refinements re-merge the group and
	// surface as updates of that slot.
	ReducingLocator struct {
		wrapped Locator
	}

	reducedSlot struct {
		out     int
		merged  *envinfo.EnvInfo
		sources map[int]*envinfo.EnvInfo
		// order keeps the discovery order of sources for stable merging.
		order []int
	}
)

// NewReducingLocator wraps wrapped with identity reconciliation.
func NewReducingLocator(wrapped Locator) *ReducingLocator {
	return &ReducingLocator{wrapped: wrapped}
}

// IterEnvs implements Locator.
func (r *ReducingLocator) IterEnvs(ctx context.Context, q Query) *EnvsIterator {
	return Produce(ctx, func(ctx context.Context, sink *Sink) {
		var (
			slots    []*reducedSlot
			bySource = make(map[int]*reducedSlot)
			seen     int
		)

		onEnv := func(env *envinfo.EnvInfo) {
			src := seen
			seen++
			if env == nil {
				return
			}
			for _, slot := range slots {
				if slot.merged == nil {
					continue
				}
				if same, known := envinfo.AreSameEnv(slot.merged, env, true); known && same {
					slot.add(src, env)
					bySource[src] = slot
					r.emit(sink, slot)
					return
				}
			}
			slot := &reducedSlot{sources: make(map[int]*envinfo.EnvInfo)}
			slot.add(src, env)
			slot.merged = slot.reduce()
			idx, ok := sink.Yield(slot.merged)
			if !ok {
				return
			}
			slot.out = idx
			slots = append(slots, slot)
			bySource[src] = slot
		}

		onUpdate := func(evt UpdateEvent) {
			slot, ok := bySource[evt.Index]
			if !ok || slot.merged == nil {
				return
			}
			if evt.New == nil {
				slot.remove(evt.Index)
				delete(bySource, evt.Index)
			} else {
				slot.sources[evt.Index] = evt.New
			}
			r.emit(sink, slot)
		}

		_ = IterAndUpdate(ctx, r.wrapped.IterEnvs(ctx, q), onEnv, onUpdate)
	})
}

// emit re-merges slot and publishes the result. A slot without sources is
// removed for good.
func (r *ReducingLocator) emit(sink *Sink, slot *reducedSlot) {
	old := slot.merged
	slot.merged = slot.reduce()
	sink.Update(UpdateEvent{Index: slot.out, Old: old, New: slot.merged})
}

// ResolveEnv implements Locator.
func (r *ReducingLocator) ResolveEnv(ctx context.Context, env *envinfo.EnvInfo) (*envinfo.EnvInfo, error) {
	return r.wrapped.ResolveEnv(ctx, env)
}

// OnChanged implements Locator.
func (r *ReducingLocator) OnChanged(fn func(ChangeEvent)) func() {
	return r.wrapped.OnChanged(fn)
}

func (s *reducedSlot) add(src int, env *envinfo.EnvInfo) {
	s.sources[src] = env
	s.order = append(s.order, src)
}

func (s *reducedSlot) remove(src int) {
	delete(s.sources, src)
	for i, candidate := range s.order {
		if candidate == src {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// reduce merges the sources, most identifiable kind first.
func (s *reducedSlot) reduce() *envinfo.EnvInfo {
	if len(s.order) == 0 {
		return nil
	}
	envs := make([]*envinfo.EnvInfo, 0, len(s.order))
	for _, src := range s.order {
		envs = append(envs, s.sources[src])
	}
	sorted := envinfo.SortByPriority(envs...)
	merged := envinfo.Normalize(sorted[0])
	for _, env := range sorted[1:] {
		merged = envinfo.MergeEnvs(merged, env)
	}
	return merged
}
