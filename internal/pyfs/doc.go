// SPDX-License-Identifier: MPL-2.0

// Package pyfs holds the filesystem side of interpreter discovery: the
// platform predicates that recognize Python executables, the concurrent
// recursive interpreter search, and best-effort version detection from
// files that live next to an interpreter (versioned sibling executables,
// pyvenv.cfg, conda-meta records).
package pyfs
