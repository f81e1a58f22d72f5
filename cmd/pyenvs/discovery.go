// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/invowk/pyenvs/internal/config"
	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/internal/envservice"
	"github.com/invowk/pyenvs/internal/issue"
	"github.com/invowk/pyenvs/internal/locator"
	"github.com/invowk/pyenvs/internal/locator/lowlevel"
)

// scopeFlags are the discovery flags shared by list, resolve and watch.
type scopeFlags struct {
	workspaces []string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.workspaces, "workspace", "w", nil,
		"workspace folder searched for project environments (repeatable, default: config or working directory)")
}

// openEngine loads the configuration and builds the discovery pipeline.
// Callers must Dispose the engine.
func (a *App) openEngine(ctx context.Context, scope scopeFlags) (*engine, *config.Config, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	roots, err := a.workspaceRoots(cfg, scope.workspaces)
	if err != nil {
		return nil, nil, err
	}

	e := newEngine(engineOptions{
		cfg:    cfg,
		roots:  roots,
		home:   a.Home,
		goos:   a.GOOS,
		getenv: a.Getenv,
		run:    a.Run,
		logger: a.logger(""),
	})
	return e, cfg, nil
}

// workspaceRoots picks flag values over configured roots over the working
// directory, and makes them absolute.
func (a *App) workspaceRoots(cfg *config.Config, flagRoots []string) ([]string, error) {
	raw := flagRoots
	if len(raw) == 0 {
		for _, r := range cfg.Discovery.WorkspaceRoots {
			raw = append(raw, r.Expand(a.Home))
		}
	}
	if len(raw) == 0 {
		wd, err := a.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		raw = []string{wd}
	}

	roots := make([]string, 0, len(raw))
	for _, r := range raw {
		abs, err := a.absPath(r)
		if err != nil {
			return nil, err
		}
		roots = append(roots, abs)
	}
	return roots, nil
}

// parseKinds maps --kind values to kinds.
func parseKinds(names []string) ([]envinfo.Kind, error) {
	kinds := make([]envinfo.Kind, 0, len(names))
	for _, name := range names {
		k, ok := envinfo.KindFromName(name)
		if !ok {
			valid := make([]string, 0)
			for _, pk := range envinfo.PrioritizedKinds() {
				if n := envinfo.KindName(pk); n != "" {
					valid = append(valid, n)
				}
			}
			return nil, issue.NewErrorContext().
				WithOperation("parse --kind").
				WithResource(name).
				WithSuggestion("Valid kinds: " + strings.Join(valid, ", ")).
				Wrap(envinfo.ErrInvalidKind).
				BuildError()
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// discover collects every record matching q, probing each interpreter when
// inspect is set.
func (e *engine) discover(ctx context.Context, q locator.Query, inspect bool) ([]*envinfo.EnvInfo, error) {
	envs, err := locator.Collect(ctx, e.root.IterEnvs(ctx, q))
	if err != nil {
		return nil, err
	}

	if inspect {
		g, gctx := errgroup.WithContext(ctx)
		for i, env := range envs {
			g.Go(func() error {
				refined, _, err := e.inspect(gctx, env, envservice.PriorityDefault)
				if err != nil {
					return err
				}
				envs[i] = refined
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	sortEnvs(envs)
	return envs, nil
}

// sortEnvs orders records by kind priority, then by executable path.
func sortEnvs(envs []*envinfo.EnvInfo) {
	rank := make(map[envinfo.Kind]int)
	for i, k := range envinfo.PrioritizedKinds() {
		rank[k] = i
	}
	slices.SortStableFunc(envs, func(a, b *envinfo.EnvInfo) int {
		if c := cmp.Compare(rank[a.Kind], rank[b.Kind]); c != 0 {
			return c
		}
		return cmp.Compare(a.Executable.Filename, b.Executable.Filename)
	})
}

// workspaceQuery restricts a query to the engine's workspace roots.
func (e *engine) workspaceQuery(q locator.Query) locator.Query {
	q.SearchLocations = append([]*url.URL{}, e.workspaceRoots()...)
	return q
}

// workspaceLabel renders a record's search location as a local path.
func workspaceLabel(env *envinfo.EnvInfo) string {
	if env.SearchLocation == nil {
		return ""
	}
	return lowlevel.PathFromURI(env.SearchLocation)
}
