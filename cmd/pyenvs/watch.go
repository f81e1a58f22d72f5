// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/issue"
	"github.com/invowk/pyenvs/internal/locator"
)

var errWatchDisabled = errors.New("watching is disabled")

type watchOptions struct {
	scope    scopeFlags
	duration time.Duration
}

func newWatchCommand(app *App) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report environments as they are created or removed",
		Long: `Watch environment directories and print what changed.

After each change the affected sources are listed again and the added and
removed interpreters are printed. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runWatch(cmd, opts)
		},
	}
	opts.scope.register(cmd)
	cmd.Flags().DurationVar(&opts.duration, "for", 0, "stop after this long (default: until interrupted)")
	return cmd
}

func (a *App) runWatch(cmd *cobra.Command, opts *watchOptions) error {
	ctx := cmd.Context()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	e, cfg, err := a.openEngine(ctx, opts.scope)
	if err != nil {
		return err
	}
	defer func() { _ = e.Dispose() }()

	if !cfg.Discovery.Watch {
		return issue.NewErrorContext().
			WithOperation("watch environments").
			WithSuggestion("Set discovery.watch to true in the config file").
			WithIssue(issue.WatchUnavailableId).
			Wrap(errWatchDisabled).
			BuildError()
	}

	changes := make(chan locator.ChangeEvent, 1)
	unsub := e.root.OnChanged(func(evt locator.ChangeEvent) {
		select {
		case changes <- evt:
		default:
		}
	})
	defer unsub()

	if err := e.startWatching(ctx); err != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning:"), "some directories are not watched:", err)
	}

	out := cmd.OutOrStdout()
	known, err := e.discover(ctx, locator.Query{}, false)
	if err != nil {
		return ignoreDone(ctx, err)
	}
	fmt.Fprintln(out, SubtitleStyle.Render(fmt.Sprintf("watching, %d interpreter(s) known", len(known))))

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-changes:
			current, err := e.discover(ctx, locator.Query{}, false)
			if err != nil {
				return ignoreDone(ctx, err)
			}
			printDiff(out, evt, known, current)
			known = current
		}
	}
}

// printDiff prints the interpreters that appeared or vanished.
func printDiff(w io.Writer, evt locator.ChangeEvent, before, after []*envinfo.EnvInfo) {
	label := envinfo.KindDisplayName(evt.Kind)
	if label == "" {
		label = "environments"
	}
	fmt.Fprintln(w, TitleStyle.Render("changed:"), label)

	was := make(map[string]bool, len(before))
	for _, env := range before {
		was[env.Executable.Filename] = true
	}
	is := make(map[string]bool, len(after))
	for _, env := range after {
		is[env.Executable.Filename] = true
		if !was[env.Executable.Filename] {
			fmt.Fprintln(w, SuccessStyle.Render("  + "), env.Executable.Filename)
		}
	}
	for _, env := range before {
		if !is[env.Executable.Filename] {
			fmt.Fprintln(w, ErrorStyle.Render("  - "), env.Executable.Filename)
		}
	}
}

func ignoreDone(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
