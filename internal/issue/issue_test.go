// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestValues_OrderedAndComplete(t *testing.T) {
	t.Parallel()

	all := Values()
	if len(all) != len(issues) {
		t.Fatalf("Values() returned %d entries, want %d", len(all), len(issues))
	}
	for i, iss := range all {
		if want := Id(i + 1); iss.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, iss.Id(), want)
		}
		if strings.TrimSpace(string(iss.MarkdownMsg())) == "" {
			t.Errorf("issue %d has no message", iss.Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      Id
		heading string
	}{
		{NoInterpretersFoundId, "No Python interpreters found"},
		{InterpreterNotFoundId, "Interpreter not recognised"},
		{InspectionFailedId, "Interpreter inspection failed"},
		{ConfigLoadFailedId, "Failed to load configuration"},
		{InvalidConfigId, "Invalid configuration value"},
		{WatchUnavailableId, "Filesystem watching unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			t.Parallel()
			iss := Get(tt.id)
			if iss == nil {
				t.Fatalf("Get(%d) = nil", tt.id)
			}
			if !strings.Contains(string(iss.MarkdownMsg()), tt.heading) {
				t.Errorf("message for %d lacks %q", tt.id, tt.heading)
			}
		})
	}

	if Get(0) != nil || Get(Id(999)) != nil {
		t.Error("Get() of unknown id should be nil")
	}
}

func TestIssue_ExtLinksIsCopy(t *testing.T) {
	t.Parallel()

	iss := Get(ConfigLoadFailedId)
	links := iss.ExtLinks()
	if len(links) == 0 {
		t.Fatal("config issue should carry a link")
	}
	links[0] = "changed"
	if iss.ExtLinks()[0] == "changed" {
		t.Error("ExtLinks() exposed internal slice")
	}
}

func TestIssue_RenderAppendsLinks(t *testing.T) {
	// Swaps the package renderer, so not parallel.
	orig := render
	t.Cleanup(func() { render = orig })

	var gotStyle string
	render = func(in, style string) (string, error) {
		gotStyle = style
		return in, nil
	}

	out, err := Get(WatchUnavailableId).Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if gotStyle != "dark" {
		t.Errorf("style = %q, want dark", gotStyle)
	}
	if !strings.Contains(out, "## See also") || !strings.Contains(out, "<https://man7.org/") {
		t.Errorf("rendered output missing link section:\n%s", out)
	}

	out, err = Get(InterpreterNotFoundId).Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "See also") {
		t.Error("issue without links rendered a link section")
	}
}

func TestAllIssuesRenderWithGlamour(t *testing.T) {
	t.Parallel()

	for _, iss := range Values() {
		out, err := iss.Render("notty")
		if err != nil {
			t.Errorf("Render(%d) error = %v", iss.Id(), err)
			continue
		}
		if strings.TrimSpace(out) == "" {
			t.Errorf("Render(%d) produced no output", iss.Id())
		}
	}
}
