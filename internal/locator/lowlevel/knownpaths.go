// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/locator"
	"github.com/invowk/pyenvs/internal/pyfs"
	"github.com/invowk/pyenvs/pkg/platform"
)

// systemDirs hold interpreters installed by the OS package manager.
var systemDirs = []string{"/usr/bin", "/bin", "/usr/sbin", "/sbin"}

// PathOptions configures the PATH locator.
type PathOptions struct {
	GOOS   string
	Getenv func(string) string
	Logger *log.Logger
}

// NewPathLocator returns a cached locator over the interpreters found in the
// search-path directories. Every iteration served from the cache also
// rescans PATH in the background.
func NewPathLocator(opts PathOptions) *locator.CachingLocator {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	files := NewFoundFilesLocatorFunc("PATH", func(exe string) envinfo.Kind {
		return kindForPathEntry(opts.GOOS, exe)
	}, func(ctx context.Context) ([]string, error) {
		var all []string
		for _, dir := range platform.SearchPathEntries(opts.GOOS, opts.Getenv) {
			found, err := pyfs.FindInterpretersInDir(ctx, dir, pyfs.SearchOptions{GOOS: opts.GOOS})
			if err != nil {
				return nil, err
			}
			all = append(all, found...)
		}
		return all, nil
	}, opts.Logger)
	return locator.NewCachingLocator(files,
		locator.WithCacheLogger(opts.Logger),
		locator.WithRefreshOnIterate(),
	)
}

// kindForPathEntry tags OS-managed interpreters. Anything else found on PATH
// is a global install of unknown origin.
func kindForPathEntry(goos, exe string) envinfo.Kind {
	if goos == platform.Windows {
		if strings.Contains(strings.ToLower(exe), `\microsoft\windowsapps\`) {
			return envinfo.KindWindowsStore
		}
		return envinfo.KindOtherGlobal
	}
	dir := filepath.Dir(exe)
	for _, sys := range systemDirs {
		if dir != sys {
			continue
		}
		if goos == platform.Darwin && dir == "/usr/bin" {
			return envinfo.KindMacDefault
		}
		return envinfo.KindSystem
	}
	return envinfo.KindOtherGlobal
}
