// SPDX-License-Identifier: MPL-2.0

package pyfs

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/invowk/pyenvs/pkg/platform"
)

// touch creates an empty file (and its parent directories) under root.
func touch(t *testing.T, root string, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsPythonExecutable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos string
		path string
		want bool
	}{
		{platform.Linux, "/usr/bin/python", true},
		{platform.Linux, "/usr/bin/python3", true},
		{platform.Linux, "/usr/bin/python3.9", true},
		{platform.Linux, "/usr/bin/python3.10", true},
		{platform.Linux, "/usr/bin/python3-config", false},
		{platform.Linux, "/usr/bin/python3.9m", false},
		{platform.Linux, "/usr/bin/Python3", false},
		{platform.Linux, "/usr/bin/pythonw", false},
		{platform.Linux, "/usr/bin/python.exe", false},
		{platform.Windows, `C:\Python39\python.exe`, true},
		{platform.Windows, `C:\Python39\PYTHON.EXE`, true},
		{platform.Windows, `C:\Python39\python3.9.exe`, true},
		{platform.Windows, `C:\Python39\python`, false},
		{platform.Windows, `C:\Python39\pythonw.exe`, false},
	}

	for _, tt := range tests {
		t.Run(tt.goos+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			if got := IsPythonExecutable(tt.goos, tt.path); got != tt.want {
				t.Errorf("IsPythonExecutable(%q, %q) = %v, want %v", tt.goos, tt.path, got, tt.want)
			}
		})
	}
}

func TestFindInterpretersInDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	top := touch(t, root, "python3")
	touch(t, root, "pip")
	nested := touch(t, root, "envs", "a", "bin", "python")
	deep := touch(t, root, "envs", "a", "lib", "deeper", "python3")
	hidden := touch(t, root, ".hidden", "python")

	ctx := context.Background()
	opts := SearchOptions{GOOS: platform.Linux}

	got, err := FindInterpretersInDir(ctx, root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{top}) {
		t.Errorf("depth 0 = %v, want [%s]", got, top)
	}

	opts.Depth = 3
	got, err = FindInterpretersInDir(ctx, root, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{top, nested, hidden} {
		if !slices.Contains(got, want) {
			t.Errorf("depth 3 missing %s in %v", want, got)
		}
	}
	if slices.Contains(got, deep) {
		t.Errorf("depth 3 should not reach %s", deep)
	}

	opts.DirFilter = func(name string) bool { return name[0] != '.' }
	got, err = FindInterpretersInDir(ctx, root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if slices.Contains(got, hidden) {
		t.Errorf("filtered search should skip %s", hidden)
	}
}

func TestFindInterpretersInDir_Missing(t *testing.T) {
	t.Parallel()

	got, err := FindInterpretersInDir(context.Background(), filepath.Join(t.TempDir(), "nope"), SearchOptions{})
	if err != nil || got != nil {
		t.Errorf("missing root = %v, %v; want nil, nil", got, err)
	}
}

func TestFindInterpretersInDir_Cancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "python3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FindInterpretersInDir(ctx, root, SearchOptions{}); err == nil {
		t.Error("expected context error")
	}
}

func TestInterpreterPathFromDir(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == platform.Windows {
		t.Skip("fixture uses POSIX executable names")
	}

	env := t.TempDir()
	touch(t, env, "bin", "python3")
	want := touch(t, env, "bin", "python")
	touch(t, env, "share", "python")

	if got := InterpreterPathFromDir(context.Background(), env); got != want {
		t.Errorf("InterpreterPathFromDir() = %q, want %q", got, want)
	}
	if got := InterpreterPathFromDir(context.Background(), t.TempDir()); got != "" {
		t.Errorf("InterpreterPathFromDir(empty) = %q", got)
	}
}

func TestEnvironmentDirFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{filepath.Join("envs", "a", "bin", "python"), filepath.Join("envs", "a")},
		{filepath.Join("envs", "a", "Scripts", "python.exe"), filepath.Join("envs", "a")},
		{filepath.Join("envs", "a", "python.exe"), filepath.Join("envs", "a")},
	}
	for _, tt := range tests {
		if got := EnvironmentDirFromPath(tt.in); got != tt.want {
			t.Errorf("EnvironmentDirFromPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
