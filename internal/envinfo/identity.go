// SPDX-License-Identifier: MPL-2.0

package envinfo

import (
	"path/filepath"

	"golang.org/x/exp/slices"

	"github.com/invowk/pyenvs/pkg/platform"
	"github.com/invowk/pyenvs/pkg/pyversion"
)

// MinimalPartialInfo returns e if it carries enough information to be
// identified (a non-empty executable filename), nil otherwise.
func MinimalPartialInfo(e *EnvInfo) *EnvInfo {
	if e == nil || e.Executable.Filename == "" {
		return nil
	}
	return e
}

// AreSameEnv decides whether a and b denote the same physical interpreter.
// The second result is false when either side lacks an executable path, in
// which case the first result is meaningless.
//
// Matching executables are always the same. Executables in the same
// directory are the same when both versions are known and identical, or
// similar if allowPartialMatch is set; Windows Store installs put several
// versioned executables side by side like this.
func AreSameEnv(a, b *EnvInfo, allowPartialMatch bool) (same, known bool) {
	left, right := MinimalPartialInfo(a), MinimalPartialInfo(b)
	if left == nil || right == nil {
		return false, false
	}
	leftFile, rightFile := left.Executable.Filename, right.Executable.Filename
	if platform.ArePathsSame(leftFile, rightFile) {
		return true, true
	}
	if !platform.ArePathsSame(filepath.Dir(leftFile), filepath.Dir(rightFile)) {
		return false, true
	}
	lv, rv := left.Version, right.Version
	if !hasVersion(lv) || !hasVersion(rv) {
		return false, true
	}
	if pyversion.AreIdentical(lv, rv) {
		return true, true
	}
	return allowPartialMatch && pyversion.AreSimilar(lv, rv), true
}

// AreSamePath is AreSameEnv for a bare executable path against a record.
// Without versions on the path side, only path equality can match.
func AreSamePath(executable string, e *EnvInfo) (same, known bool) {
	return AreSameEnv(FromPath(executable), e, true)
}

// SortByPriority returns a new slice with envs ordered by kind, most
// identifiable first. The sort is stable, so equally-ranked records keep
// their discovery order.
func SortByPriority(envs ...*EnvInfo) []*EnvInfo {
	sorted := slices.Clone(envs)
	slices.SortStableFunc(sorted, func(a, b *EnvInfo) int {
		return rank(a) - rank(b)
	})
	return sorted
}

// PickBestEnv returns the highest-priority candidate, or nil for no candidates.
// The candidates are expected to be equivalent in some way.
func PickBestEnv(candidates []*EnvInfo) *EnvInfo {
	if len(candidates) == 0 {
		return nil
	}
	return SortByPriority(candidates...)[0]
}

// rank places unrecognized kinds after KindUnknown.
func rank(e *EnvInfo) int {
	if e == nil {
		return len(prioritizedKinds) + 1
	}
	k := e.Kind
	if k == "" {
		k = KindUnknown
	}
	if r := kindPriority(k); r >= 0 {
		return r
	}
	return len(prioritizedKinds)
}

func hasVersion(v pyversion.Version) bool {
	return !v.IsEmpty() && !v.IsZero()
}
