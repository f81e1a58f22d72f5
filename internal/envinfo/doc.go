// SPDX-License-Identifier: MPL-2.0

// Package envinfo defines the canonical record describing one discovered
// Python environment and the algebra over it.
//
// An EnvInfo is composed of three parts: base identity (kind, executable,
// name, location), build (version and architecture) and distro metadata.
// Each part has its own copy, normalize, validate and merge step, and the
// whole-record operations compose them bottom-up. Every operation returns a
// fresh record; nothing is mutated in place, so holders of an older record
// keep a stable snapshot.
//
// The identity helpers (AreSameEnv, SortByPriority, PickBestEnv) decide
// whether two records denote the same interpreter and which one should
// represent it.
package envinfo
