// SPDX-License-Identifier: MPL-2.0

// Package cmd is the pyenvs command line: it wires the locator pipeline,
// the inspection service and the configuration into Cobra commands.
package cmd
