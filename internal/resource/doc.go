// SPDX-License-Identifier: MPL-2.0

// Package resource groups teardown of long-lived components. A disposal batch
// runs every member concurrently; one member failing never stops the others.
package resource
