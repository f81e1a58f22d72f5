// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/pyenvs/internal/issue"
	"github.com/invowk/pyenvs/internal/locator"
)

var errNoInterpreters = errors.New("no interpreters found")

type listOptions struct {
	scope         scopeFlags
	kinds         []string
	workspaceOnly bool
	json          bool
	inspect       bool
}

func newListCommand(app *App) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered interpreters",
		Long: `List every Python interpreter pyenvs can find.

Records that several sources report for the same interpreter are merged;
the most specific kind wins.`,
		Example: `  pyenvs list
  pyenvs list --kind conda --kind venv
  pyenvs list --workspace ~/src/app --workspace-only --json
  pyenvs list --inspect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runList(cmd, opts)
		},
	}
	opts.scope.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.kinds, "kind", "k", nil, "only list this kind (repeatable)")
	cmd.Flags().BoolVar(&opts.workspaceOnly, "workspace-only", false, "only list environments below the workspace folders")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")
	cmd.Flags().BoolVar(&opts.inspect, "inspect", false, "run each interpreter to read its exact version and architecture")
	return cmd
}

func (a *App) runList(cmd *cobra.Command, opts *listOptions) error {
	ctx := cmd.Context()

	kinds, err := parseKinds(opts.kinds)
	if err != nil {
		return err
	}

	e, _, err := a.openEngine(ctx, opts.scope)
	if err != nil {
		return err
	}
	defer func() { _ = e.Dispose() }()

	q := locator.Query{Kinds: kinds}
	if opts.workspaceOnly {
		q = e.workspaceQuery(q)
	}
	envs, err := e.discover(ctx, q, opts.inspect)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		views := make([]envView, len(envs))
		for i, env := range envs {
			views[i] = viewOf(env)
		}
		return writeJSON(out, views)
	}

	if len(envs) == 0 {
		return issue.NewErrorContext().
			WithOperation("list interpreters").
			WithSuggestion("Run with --verbose to see which sources were searched").
			WithIssue(issue.NoInterpretersFoundId).
			Wrap(errNoInterpreters).
			BuildError()
	}
	fmt.Fprintln(out, renderEnvTable(envs))
	fmt.Fprintln(out, SubtitleStyle.Render(fmt.Sprintf("%d interpreter(s)", len(envs))))
	return nil
}
