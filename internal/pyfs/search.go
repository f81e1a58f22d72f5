// SPDX-License-Identifier: MPL-2.0

package pyfs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/invowk/pyenvs/pkg/platform"
)

// pythonNamePatterns match python, python3, python3.9 and python3.10.
// Windows names get an ".exe" suffix and are matched lower-cased.
var pythonNamePatterns = []string{
	"python",
	"python[0-9]",
	"python[0-9].[0-9]",
	"python[0-9].[0-9][0-9]",
}

// SearchOptions tunes FindInterpretersInDir.
type SearchOptions struct {
	// Depth is how many directory levels below the root are searched.
	// Zero scans the root only.
	Depth int
	// DirFilter, when set, prunes subdirectories whose base name it rejects.
	DirFilter func(name string) bool
	// GOOS selects the executable predicate; empty means runtime.GOOS.
	GOOS string
}

// IsPythonExecutable reports whether the file name looks like a Python
// interpreter on the given OS. Windows names match case-insensitively.
func IsPythonExecutable(goos, path string) bool {
	name := baseName(path)
	suffix := ""
	if goos == platform.Windows {
		name = strings.ToLower(name)
		suffix = ".exe"
	}
	for _, pattern := range pythonNamePatterns {
		if ok, _ := doublestar.Match(pattern+suffix, name); ok {
			return true
		}
	}
	return false
}

// FindInterpretersInDir returns the Python executables under root, searching
// opts.Depth levels of subdirectories. Sibling entries are examined
// concurrently; results keep directory-listing order. A root that does not
// exist yields no results and no error.
func FindInterpretersInDir(ctx context.Context, root string, opts SearchOptions) ([]string, error) {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, nil
		}
		return nil, err
	}

	found := make([][]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		full := filepath.Join(root, entry.Name())
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if isDir(full, entry) {
				if opts.Depth <= 0 || (opts.DirFilter != nil && !opts.DirFilter(entry.Name())) {
					return nil
				}
				sub := opts
				sub.Depth--
				sub.GOOS = goos
				nested, err := FindInterpretersInDir(gctx, full, sub)
				found[i] = nested
				return err
			}
			if IsPythonExecutable(goos, full) {
				found[i] = []string{full}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(found...), nil
}

// PythonExecutablesInDir lists the Python executables directly inside dir.
func PythonExecutablesInDir(ctx context.Context, dir string) ([]string, error) {
	return FindInterpretersInDir(ctx, dir, SearchOptions{})
}

// InterpreterPathFromDir looks for a plain "python" or "python.exe" in the
// bin/Scripts-like subdirectories of envDir, up to two levels deep. It
// returns "" when none is found.
func InterpreterPathFromDir(ctx context.Context, envDir string) string {
	filter := func(name string) bool {
		lower := strings.ToLower(name)
		return lower == "bin" || lower == "scripts" || strings.Contains(lower, "python")
	}
	bins, err := FindInterpretersInDir(ctx, envDir, SearchOptions{Depth: 2, DirFilter: filter})
	if err != nil {
		return ""
	}
	for _, bin := range bins {
		if base := strings.ToLower(baseName(bin)); base == "python" || base == "python.exe" {
			return bin
		}
	}
	return ""
}

// EnvironmentDirFromPath guesses the environment directory of an
// interpreter: its parent, or its grandparent when the parent is a
// bin/Scripts directory.
func EnvironmentDirFromPath(interpreter string) string {
	dir := filepath.Dir(interpreter)
	switch strings.ToLower(filepath.Base(dir)) {
	case "bin", "scripts":
		return filepath.Dir(dir)
	default:
		return dir
	}
}

// IsDirectory reports whether path exists and is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isDir follows symlinks so linked environment directories are searched.
func isDir(full string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink != 0 {
		return IsDirectory(full)
	}
	return false
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
