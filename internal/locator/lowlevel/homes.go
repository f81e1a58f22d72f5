// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/pyfs"
)

// HomeDirs are the per-user directories that collect environments of one
// tool each. Empty entries are skipped.
type HomeDirs struct {
	// PyenvRoot is $PYENV_ROOT or ~/.pyenv.
	PyenvRoot string
	// WorkonHome is $WORKON_HOME or ~/.virtualenvs.
	WorkonHome string
	// PipenvHome is where pipenv keeps its environments,
	// ~/.local/share/virtualenvs by default.
	PipenvHome string
}

// DefaultHomeDirs resolves HomeDirs from the environment.
func DefaultHomeDirs(home string, getenv func(string) string) HomeDirs {
	pick := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		if home == "" {
			return ""
		}
		return filepath.Join(home, fallback)
	}
	dirs := HomeDirs{
		PyenvRoot:  pick("PYENV_ROOT", ".pyenv"),
		WorkonHome: pick("WORKON_HOME", ".virtualenvs"),
	}
	if home != "" {
		dirs.PipenvHome = filepath.Join(home, ".local", "share", "virtualenvs")
	}
	return dirs
}

// NewPyenvLocator lists the interpreters of every pyenv-installed version.
func NewPyenvLocator(root string, logger *log.Logger) *FoundFilesLocator {
	versions := filepath.Join(root, "versions")
	return NewFoundFilesLocator(versions, envinfo.KindPyenv, func(ctx context.Context) ([]string, error) {
		entries, err := os.ReadDir(versions)
		if err != nil {
			return nil, nil
		}
		var exes []string
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			if exe := pyfs.InterpreterPathFromDir(ctx, filepath.Join(versions, entry.Name())); exe != "" {
				exes = append(exes, exe)
			}
		}
		return exes, nil
	}, logger)
}

// HomeLocators returns the locators for every configured home directory,
// paired with the directory each one should be watched at.
func HomeLocators(dirs HomeDirs, logger *log.Logger) (locators []*WatchedLocator) {
	if dirs.PyenvRoot != "" {
		locators = append(locators, &WatchedLocator{
			Locator:   NewPyenvLocator(dirs.PyenvRoot, logger),
			WatchRoot: filepath.Join(dirs.PyenvRoot, "versions"),
			Kind:      envinfo.KindPyenv,
		})
	}
	if dirs.WorkonHome != "" {
		locators = append(locators, &WatchedLocator{
			Locator: NewVirtualEnvLocator(VirtualEnvOptions{
				Root: dirs.WorkonHome, Kind: envinfo.KindVirtualEnvWrapper, Logger: logger,
			}),
			WatchRoot: dirs.WorkonHome,
			Kind:      envinfo.KindVirtualEnvWrapper,
		})
	}
	if dirs.PipenvHome != "" {
		locators = append(locators, &WatchedLocator{
			Locator: NewVirtualEnvLocator(VirtualEnvOptions{
				Root: dirs.PipenvHome, Kind: envinfo.KindPipenv, Logger: logger,
			}),
			WatchRoot: dirs.PipenvHome,
			Kind:      envinfo.KindPipenv,
		})
	}
	return locators
}
