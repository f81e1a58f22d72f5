// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/invowk/pyenvs/internal/envservice"
	"github.com/invowk/pyenvs/internal/issue"
	"github.com/invowk/pyenvs/internal/locator"
)

var errNotLocated = errors.New("no locator recognises this interpreter")

type resolveOptions struct {
	scope   scopeFlags
	json    bool
	inspect bool
}

func newResolveCommand(app *App) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve <interpreter>",
		Short: "Show the environment an interpreter belongs to",
		Long: `Resolve an interpreter path to its environment record.

Each source is asked in turn; the first one that recognises the path
answers. Nothing is executed unless --inspect is given.`,
		Example: `  pyenvs resolve .venv/bin/python
  pyenvs resolve ~/miniconda3/envs/ml/bin/python --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runResolve(cmd, opts, args[0])
		},
	}
	opts.scope.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")
	cmd.Flags().BoolVar(&opts.inspect, "inspect", false, "run the interpreter to read its exact version and architecture")
	return cmd
}

func (a *App) runResolve(cmd *cobra.Command, opts *resolveOptions, target string) error {
	ctx := cmd.Context()

	path, err := a.absPath(target)
	if err != nil {
		return err
	}

	e, _, err := a.openEngine(ctx, opts.scope)
	if err != nil {
		return err
	}
	defer func() { _ = e.Dispose() }()

	env, err := locator.ResolvePath(ctx, e.root, path)
	if err != nil {
		return err
	}
	if env == nil {
		return &ExitError{
			Code: 2,
			Err: issue.NewErrorContext().
				WithOperation("resolve interpreter").
				WithResource(path).
				WithSuggestion("Check that the environment is below a --workspace folder or a configured search path").
				WithIssue(issue.InterpreterNotFoundId).
				Wrap(errNotLocated).
				BuildError(),
		}
	}

	if opts.inspect {
		if env, _, err = e.inspect(ctx, env, envservice.PriorityHigh); err != nil {
			return err
		}
	}

	if opts.json {
		return writeJSON(cmd.OutOrStdout(), viewOf(env))
	}
	renderEnvDetails(cmd.OutOrStdout(), env)
	return nil
}
