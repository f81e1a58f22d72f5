// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"

	"github.com/invowk/pyenvs/internal/config"
	"github.com/invowk/pyenvs/internal/interpreter"
	"github.com/invowk/pyenvs/internal/issue"
	"github.com/invowk/pyenvs/internal/logging"
)

type (
	// App is the composition root of the CLI. Command handlers reach every
	// host dependency through it so tests can substitute them.
	App struct {
		Config config.Provider
		// Run executes interpreters for inspection; nil runs them on the host.
		Run    interpreter.RunFunc
		Getenv func(string) string
		Getwd  func() (string, error)
		Home   string
		GOOS   string

		stdout io.Writer
		stderr io.Writer

		// Set by the root command before any handler runs.
		verbose    bool
		configPath string
		scheme     config.ColorScheme
	}

	// Dependencies are the injection points of NewApp. Zero fields get host
	// defaults.
	Dependencies struct {
		Config config.Provider
		Run    interpreter.RunFunc
		Getenv func(string) string
		Getwd  func() (string, error)
		Home   string
		GOOS   string
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp fills in host defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	if deps.Home == "" {
		deps.Home, _ = os.UserHomeDir()
	}
	if deps.GOOS == "" {
		deps.GOOS = runtime.GOOS
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{
		Config: deps.Config,
		Run:    deps.Run,
		Getenv: deps.Getenv,
		Getwd:  deps.Getwd,
		Home:   deps.Home,
		GOOS:   deps.GOOS,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		scheme: config.ColorSchemeAuto,
	}
}

// loadConfig loads the configuration selected by --config and applies its
// UI settings.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	a.verbose = a.verbose || cfg.UI.Verbose
	a.scheme = cfg.UI.ColorScheme
	return cfg, nil
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.configPath}
}

// logger returns a component logger writing to stderr.
func (a *App) logger(prefix string) *log.Logger {
	return logging.New(a.stderr, prefix, a.verbose)
}

// absPath resolves p against the working directory.
func (a *App) absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	wd, err := a.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return filepath.Join(wd, p), nil
}

// handleError is the fang error handler: actionable errors get their
// suggestions and, when linked, the rendered catalog page.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.verbose))

	if iss, ok := issue.IssueOf(err); ok {
		rendered, rerr := iss.Render(string(a.scheme))
		if rerr != nil {
			a.logger("").Debug("render issue", "id", iss.Id(), "error", rerr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}

func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
