// SPDX-License-Identifier: MPL-2.0

// Package locator defines the Locator capability and the wrappers that
// compose locators into a discovery graph.
//
// A Locator iterates environments as a lazy, cancellable sequence, resolves a
// single environment by path or partial info, and notifies subscribers when
// its environments may have changed. Iteration results are an EnvsIterator:
// a primary stream of initial records plus a side stream of UpdateEvents
// that refine or remove records already yielded.
//
// Composites never subclass; each wrapper holds the locators it wraps:
//
//   - Locators chains sub-locators in order
//   - CachingLocator memoizes full iterations and shares in-flight scans
//   - DisableableLocator can be switched off without losing its state
//   - ReducingLocator merges records that denote the same interpreter
//   - WorkspaceLocators fans out over per-workspace-root locators
//   - ExtensionLocators puts global locators ahead of the workspace fan-out
//     and leaves them out of queries scoped to search locations
package locator
