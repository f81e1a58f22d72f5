// SPDX-License-Identifier: MPL-2.0

// Package logging constructs the component loggers used across pyenvs.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Component prefixes.
const (
	PrefixLocator    = "locator"
	PrefixWatch      = "watch"
	PrefixEnvService = "envservice"
	PrefixWorkerPool = "workerpool"
	PrefixResource   = "resource"
)

// New returns a logger writing to w with the given prefix. Verbose loggers
// emit debug records; all others start at info level. A nil writer means
// os.Stderr.
func New(w io.Writer, prefix string, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  level,
	})
}

// Discard returns a logger that drops every record.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// With returns a child of parent carrying a different prefix. A nil parent
// yields a discarding logger.
func With(parent *log.Logger, prefix string) *log.Logger {
	if parent == nil {
		return Discard()
	}
	child := parent.With()
	child.SetPrefix(prefix)
	return child
}
