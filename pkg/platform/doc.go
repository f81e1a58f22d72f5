// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform helpers for interpreter discovery.
//
// It centralizes OS name constants, PATH splitting, path comparison that
// follows the host's case rules, and sandbox detection so interpreter probes
// can be spawned on the host when running inside Flatpak or Snap.
package platform
