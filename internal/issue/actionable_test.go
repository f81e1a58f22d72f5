// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "list interpreters"}, "failed to list interpreters"},
		{
			"with resource",
			&ActionableError{Operation: "resolve interpreter", Resource: "/opt/py/bin/python"},
			"failed to resolve interpreter: /opt/py/bin/python",
		},
		{
			"with cause",
			&ActionableError{Operation: "load config", Cause: errors.New("expected '}'")},
			"failed to load config: expected '}'",
		},
		{
			"full",
			&ActionableError{Operation: "load config", Resource: "config.cue", Cause: fs.ErrNotExist},
			"failed to load config: config.cue: file does not exist",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("open: %w", fs.ErrPermission)
	err := WrapWithContext(cause, "read environments.txt", "/home/u/.conda/environments.txt")
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is should reach the wrapped sentinel")
	}

	var ae *ActionableError
	if !errors.As(fmt.Errorf("cli: %w", err), &ae) {
		t.Fatal("errors.As failed through an outer wrap")
	}
	if ae.Resource != "/home/u/.conda/environments.txt" {
		t.Errorf("Resource = %q", ae.Resource)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("exit status 1")
	err := &ActionableError{
		Operation:   "inspect interpreter",
		Resource:    "/usr/bin/python3",
		Suggestions: []string{"Run it by hand", "Raise inspect.timeout"},
		Cause:       fmt.Errorf("probe: %w", inner),
	}

	short := err.Format(false)
	if !strings.HasPrefix(short, "failed to inspect interpreter: /usr/bin/python3: probe: exit status 1") {
		t.Errorf("Format(false) = %q", short)
	}
	if !strings.Contains(short, "\n  • Run it by hand\n  • Raise inspect.timeout") {
		t.Errorf("Format(false) lacks suggestions: %q", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Error("non-verbose output includes the error chain")
	}

	long := err.Format(true)
	for _, want := range []string{"Error chain:", "1. probe: exit status 1", "2. exit status 1"} {
		if !strings.Contains(long, want) {
			t.Errorf("Format(true) lacks %q:\n%s", want, long)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should be nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want untyped nil", err)
	}

	cause := errors.New("boom")
	ctx := NewErrorContext().
		WithOperation("load config").
		WithResource("/etc/pyenvs/config.cue").
		WithSuggestion("Run 'pyenvs config init'").
		WithIssue(ConfigLoadFailedId).
		Wrap(cause)

	first := ctx.Build()
	if first.Operation != "load config" || first.Resource != "/etc/pyenvs/config.cue" {
		t.Errorf("Build() = %+v", first)
	}
	if first.Issue != ConfigLoadFailedId || !errors.Is(first, cause) {
		t.Errorf("Build() lost issue or cause: %+v", first)
	}

	second := ctx.WithSuggestions("Check the CUE syntax", "Run 'cue vet'").Build()
	if len(first.Suggestions) != 1 {
		t.Errorf("extending the builder changed an earlier error: %v", first.Suggestions)
	}
	if len(second.Suggestions) != 3 || !second.HasSuggestions() {
		t.Errorf("second.Suggestions = %v", second.Suggestions)
	}
}

func TestWrapHelpers_NilCause(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should be nil")
	}
	if WrapWithContext(nil, "x", "y") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
	if e := NewActionableError("watch"); e.Error() != "failed to watch" || e.HasSuggestions() {
		t.Errorf("NewActionableError() = %+v", e)
	}
}

func TestIssueOf(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("run: %w", NewErrorContext().
		WithOperation("list interpreters").
		WithIssue(NoInterpretersFoundId).
		BuildError())

	iss, ok := IssueOf(err)
	if !ok || iss.Id() != NoInterpretersFoundId {
		t.Errorf("IssueOf() = %v, %v", iss, ok)
	}

	if _, ok := IssueOf(NewActionableError("x")); ok {
		t.Error("IssueOf() without an issue id should report false")
	}
	if _, ok := IssueOf(errors.New("plain")); ok {
		t.Error("IssueOf() of a plain error should report false")
	}
}
