// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"

	"github.com/invowk/pyenvs/internal/envinfo"
)

// IterAndUpdate consumes both streams of it until they close or ctx is
// cancelled, handing records and updates to the callbacks in arrival order.
// Callbacks never run concurrently with each other. Either may be nil.
func IterAndUpdate(ctx context.Context, it *EnvsIterator, onEnv func(*envinfo.EnvInfo), onUpdate func(UpdateEvent)) error {
	envs, updates := it.Envs(), it.Updates()
	for envs != nil || updates != nil {
		select {
		case env, ok := <-envs:
			if !ok {
				envs = nil
				continue
			}
			if onEnv != nil {
				onEnv(env)
			}
		case evt, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if onUpdate != nil {
				onUpdate(evt)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ctx.Err()
}

// Collect drains it and returns the final records with every update applied.
// Removed slots are dropped; the remaining records keep yield order.
func Collect(ctx context.Context, it *EnvsIterator) ([]*envinfo.EnvInfo, error) {
	var envs []*envinfo.EnvInfo
	err := IterAndUpdate(ctx, it,
		func(env *envinfo.EnvInfo) { envs = append(envs, env) },
		func(evt UpdateEvent) {
			if evt.Index >= 0 && evt.Index < len(envs) {
				envs[evt.Index] = evt.New
			}
		},
	)
	if err != nil {
		return nil, err
	}

	out := envs[:0]
	for _, env := range envs {
		if env != nil {
			out = append(out, env)
		}
	}
	return out, nil
}

// ResolveFromIterator drains it and returns the first final record whose
// executable is the same path as executable. A miss is (nil, nil).
func ResolveFromIterator(ctx context.Context, it *EnvsIterator, executable string) (*envinfo.EnvInfo, error) {
	envs, err := Collect(ctx, it)
	if err != nil {
		return nil, err
	}
	match := envinfo.EnvMatcher(executable)
	for _, env := range envs {
		if match(env) {
			return env, nil
		}
	}
	return nil, nil
}
