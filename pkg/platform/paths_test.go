// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestSearchPathEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		goos string
		env  map[string]string
		want []string
	}{
		{
			name: "posix split",
			goos: Linux,
			env:  map[string]string{"PATH": "/usr/local/bin:/usr/bin: :/bin"},
			want: []string{"/usr/local/bin", "/usr/bin", "/bin"},
		},
		{
			name: "posix duplicates dropped",
			goos: Darwin,
			env:  map[string]string{"PATH": "/usr/bin:/usr/bin/:/bin"},
			want: []string{"/usr/bin", "/bin"},
		},
		{
			name: "windows semicolons",
			goos: Windows,
			env:  map[string]string{"PATH": `C:\Python39;C:\Windows;;c:\python39`},
			want: []string{`C:\Python39`, `C:\Windows`},
		},
		{
			name: "windows Path spelling",
			goos: Windows,
			env:  map[string]string{"Path": `C:\Python39`},
			want: []string{`C:\Python39`},
		},
		{
			name: "unset",
			goos: Linux,
			env:  map[string]string{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			getenv := func(k string) string { return tt.env[k] }
			got := SearchPathEntries(tt.goos, getenv)
			if !slices.Equal(got, tt.want) {
				t.Errorf("SearchPathEntries() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArePathsSame(t *testing.T) {
	t.Parallel()

	a := filepath.Join("envs", "foo", "bin", "python")
	if !ArePathsSame(a, filepath.Join("envs", "foo", "..", "foo", "bin", "python")) {
		t.Error("expected cleaned paths to match")
	}
	if ArePathsSame(a, filepath.Join("envs", "bar", "bin", "python")) {
		t.Error("expected different paths not to match")
	}
}

func TestIsParentPath(t *testing.T) {
	t.Parallel()

	root := filepath.Join("ws", "proj")
	if !IsParentPath(filepath.Join(root, ".venv", "bin"), root) {
		t.Error("expected nested path to be under root")
	}
	if !IsParentPath(root, root) {
		t.Error("expected path to be under itself")
	}
	if IsParentPath(filepath.Join("ws", "project2"), root) {
		t.Error("sibling with shared prefix must not match")
	}
}

func TestNormCaseFor(t *testing.T) {
	t.Parallel()

	if got := NormCaseFor(Windows, `C:\Python`); got != `c:\python` {
		t.Errorf("NormCaseFor(windows) = %q", got)
	}
	if got := NormCaseFor(Linux, "/Opt/Python"); got != "/Opt/Python" {
		t.Errorf("NormCaseFor(linux) = %q", got)
	}
}
