// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/envservice"
	"github.com/invowk/pyenvs/internal/issue"
	"github.com/invowk/pyenvs/internal/locator"
)

var errNoProbeResult = errors.New("interpreter did not report its version")

type inspectOptions struct {
	json bool
}

func newInspectCommand(app *App) *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <interpreter>",
		Short: "Run an interpreter and report its version, architecture and prefix",
		Example: `  pyenvs inspect /usr/bin/python3
  pyenvs inspect .venv/bin/python --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runInspect(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")
	return cmd
}

func (a *App) runInspect(cmd *cobra.Command, opts *inspectOptions, target string) error {
	ctx := cmd.Context()

	path, err := a.absPath(target)
	if err != nil {
		return err
	}

	e, _, err := a.openEngine(ctx, scopeFlags{})
	if err != nil {
		return err
	}
	defer func() { _ = e.Dispose() }()

	env, err := locator.ResolvePath(ctx, e.root, path)
	if err != nil {
		return err
	}
	if env == nil {
		env = envinfo.GetFastEnvInfo(envinfo.KindUnknown, path)
	}

	refined, ok, err := e.inspect(ctx, env, envservice.PriorityHigh)
	if err != nil {
		return err
	}
	if !ok {
		return issue.NewErrorContext().
			WithOperation("inspect interpreter").
			WithResource(path).
			WithSuggestion("Run with --verbose to see the probe output").
			WithIssue(issue.InspectionFailedId).
			Wrap(errNoProbeResult).
			BuildError()
	}

	if opts.json {
		return writeJSON(cmd.OutOrStdout(), viewOf(refined))
	}
	renderEnvDetails(cmd.OutOrStdout(), refined)
	return nil
}
