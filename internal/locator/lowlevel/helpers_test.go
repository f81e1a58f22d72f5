// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/locator"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX interpreter layout")
	}
}

// touch creates an executable file (and its parent directories).
func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
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

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func collect(t *testing.T, l locator.Locator, q locator.Query) []*envinfo.EnvInfo {
	t.Helper()
	ctx := testContext(t)
	envs, err := locator.Collect(ctx, l.IterEnvs(ctx, q))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return envs
}

func byExecutable(envs []*envinfo.EnvInfo) map[string]*envinfo.EnvInfo {
	out := make(map[string]*envinfo.EnvInfo, len(envs))
	for _, env := range envs {
		out[env.Executable.Filename] = env
	}
	return out
}
