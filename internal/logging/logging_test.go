// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	var quiet bytes.Buffer
	New(&quiet, PrefixLocator, false).Debug("hidden")
	if quiet.Len() != 0 {
		t.Errorf("non-verbose logger wrote debug output: %q", quiet.String())
	}

	var verbose bytes.Buffer
	New(&verbose, PrefixLocator, true).Debug("shown", "path", "/usr/bin/python3")
	out := verbose.String()
	if !strings.Contains(out, "shown") || !strings.Contains(out, PrefixLocator) {
		t.Errorf("verbose logger output = %q, want message and prefix", out)
	}
}

func TestWith_Prefix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	parent := New(&buf, PrefixLocator, false)
	With(parent, PrefixWatch).Info("event")
	if !strings.Contains(buf.String(), PrefixWatch) {
		t.Errorf("child output = %q, want %q prefix", buf.String(), PrefixWatch)
	}
	if With(nil, PrefixWatch) == nil || OrDiscard(nil) == nil {
		t.Error("nil parents must yield a usable logger")
	}
}
