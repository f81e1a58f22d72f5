// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/invowk/pyenvs/internal/config"
	"github.com/invowk/pyenvs/internal/issue"
)

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pyenvs configuration",
		Long: `Manage pyenvs configuration.

Configuration is stored in:
  - Linux: $XDG_CONFIG_HOME/pyenvs/config.cue (~/.config/pyenvs/config.cue)
  - macOS: ~/Library/Application Support/pyenvs/config.cue
  - Windows: %APPDATA%\pyenvs\config.cue

Every key can be overridden with a PYENVS_ environment variable, for
example PYENVS_INSPECT_WORKERS=4.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfig(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.FilePath(app.loadOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.initConfig(cmd, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func (a *App) showConfig(cmd *cobra.Command) error {
	cfg, err := a.loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, TitleStyle.Render("Current configuration"))
	fmt.Fprintln(out)
	source := SubtitleStyle.Render("(using defaults)")
	if path, err := config.FilePath(a.loadOptions()); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			source = path
		}
	}
	fmt.Fprintf(out, "%s: %s\n\n", KeyStyle.Render("Config file"), source)
	fmt.Fprint(out, config.GenerateCUE(cfg))
	return nil
}

func (a *App) initConfig(cmd *cobra.Command, force bool) error {
	path, err := config.FilePath(a.loadOptions())
	if err != nil {
		return err
	}
	if err := config.WriteDefault(path, force); err != nil {
		ec := issue.NewErrorContext().
			WithOperation("write configuration").
			WithResource(path)
		if errors.Is(err, fs.ErrExist) {
			ec.WithSuggestion("Pass --force to overwrite it")
		}
		return ec.Wrap(err).BuildError()
	}
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Created"), path)
	return nil
}
