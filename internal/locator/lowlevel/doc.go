// SPDX-License-Identifier: MPL-2.0

// Package lowlevel holds the leaf locators that actually touch the
// filesystem: directory and PATH scans, virtual environments inside
// workspace roots, poetry projects and conda installs. FSWatchingLocator
// adds change notification to any of them.
package lowlevel
