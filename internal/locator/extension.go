// SPDX-License-Identifier: MPL-2.0

package locator

import "context"

// ExtensionLocators is the top-level locator: every non-workspace locator in
// priority order followed by the workspace fan-out. Queries scoped to search
// locations only reach the workspace fan-out.
type ExtensionLocators struct {
	*Locators
	workspace *WorkspaceLocators
}

// NewExtensionLocators returns the top-level locator over nonWorkspace and
// workspace. workspace may be nil.
func NewExtensionLocators(nonWorkspace []Locator, workspace *WorkspaceLocators) *ExtensionLocators {
	all := make([]Locator, 0, len(nonWorkspace)+1)
	all = append(all, nonWorkspace...)
	if workspace != nil {
		all = append(all, workspace)
	}
	return &ExtensionLocators{Locators: NewLocators(all...), workspace: workspace}
}

// IterEnvs implements Locator.
func (e *ExtensionLocators) IterEnvs(ctx context.Context, q Query) *EnvsIterator {
	if q.SearchLocations == nil {
		return e.Locators.IterEnvs(ctx, q)
	}
	if e.workspace == nil {
		return NoEnvs(ctx)
	}
	return e.workspace.IterEnvs(ctx, q)
}
