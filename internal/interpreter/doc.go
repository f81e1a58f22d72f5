// SPDX-License-Identifier: MPL-2.0

// Package interpreter runs a Python interpreter with a small probe script
// and turns its JSON answer into authoritative version, architecture and
// prefix information.
package interpreter
