// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "pyenvs",
		Short: "Discover Python interpreters and environments",
		Long: TitleStyle.Render("pyenvs") + SubtitleStyle.Render(" - Python environment discovery") + `

pyenvs finds the Python interpreters on this machine: everything on PATH,
conda environments, pyenv versions, virtualenvwrapper and pipenv homes,
and the virtual environments and poetry projects below your workspace
folders. Records found by several sources are merged into one.

` + SubtitleStyle.Render("Examples:") + `
  pyenvs list                      List every interpreter
  pyenvs list --workspace . --json Machine-readable listing
  pyenvs resolve .venv/bin/python  Show what is known about one interpreter
  pyenvs inspect /usr/bin/python3  Run an interpreter and report its build
  pyenvs watch                     Print changes as environments come and go`,
		SilenceUsage: true,
	}

	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pyenvs/config.cue)")

	root.AddCommand(
		newListCommand(app),
		newResolveCommand(app),
		newInspectCommand(app),
		newWatchCommand(app),
		newConfigCommand(app),
	)
	return root
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the CLI against the host and returns the process exit code.
func Run() int {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// Execute runs the CLI and exits the process.
func Execute() {
	os.Exit(Run())
}
