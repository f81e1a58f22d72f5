// SPDX-License-Identifier: MPL-2.0

// Package issue holds the user-facing error surface of pyenvs: errors that
// carry the failed operation, the path involved and remediation hints, plus a
// catalog of Markdown help pages rendered in the terminal.
package issue
