// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nlpodyssey/productintel/dashboard"
	"github.com/nlpodyssey/productintel/evaluation"
	"github.com/nlpodyssey/productintel/tools/search"
	"github.com/spf13/cobra"
)

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard <analysis.json>",
		Short: "Generate the executive dashboard from a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDashboard(cmd.Context(), args[0])
		},
	}
}

// runDashboard renders the dashboard of a saved analysis. With --watch it
// keeps re-rendering until the context is canceled.
func (a *app) runDashboard(ctx context.Context, jsonPath string) (err error) {
	rt, err := a.start("-")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	dir := rt.cfg.Paths.ResultsDir

	if !a.watch {
		path, err := dashboard.GenerateFromFile(jsonPath, dir)
		if err != nil {
			return fmt.Errorf("generate dashboard from %s: %w", jsonPath, err)
		}
		a.dashboardReady(rt, jsonPath, path)
		return nil
	}

	opened := false
	fmt.Fprintf(a.stdout, "Watching %s (press Ctrl+C to stop)\n", jsonPath)
	return dashboard.Watch(ctx, jsonPath, dashboard.WatchOptions{
		Dir: dir,
		OnRender: func(path string, err error) {
			if err != nil {
				rt.log.Logger.Error("Error generating dashboard", slog.String("error", err.Error()))
				return
			}
			if opened {
				fmt.Fprintf(a.stdout, "Dashboard refreshed: %s\n", path)
				return
			}
			opened = true
			a.dashboardReady(rt, jsonPath, path)
		},
	})
}

func (a *app) dashboardReady(rt *runtime, jsonPath, path string) {
	fmt.Fprintf(a.stdout, "Dashboard generated from: %s\n", jsonPath)
	fmt.Fprintf(a.stdout, "Dashboard saved to: %s\n", path)
	if a.noBrowser {
		return
	}
	if err := a.openBrowser(path); err != nil {
		rt.log.Logger.Warn("Could not open browser", slog.String("error", err.Error()))
	}
}

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Ask the evaluator agent to assess the most recent run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			// Console only: a new run log would shadow the one to evaluate.
			rt, err := a.start("-")
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(context.WithoutCancel(cmd.Context())); cerr != nil && err == nil {
					err = cerr
				}
			}()

			ev := &evaluation.Evaluator{
				Config:   rt.cfg,
				Provider: a.newProvider(rt.cfg),
				Now:      a.now,
			}
			res, err := ev.Evaluate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Saved evaluation to %s\n", res.OutputPath)
			fmt.Fprintf(a.stdout, "\n--- Agent Result ---\n%s\n", res.Text)
			return nil
		},
	}
}

func newSearchesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "searches [product|competitor|sentiment]",
		Short:     "List the saved web searches, newest first",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"product", "competitor", "sentiment"},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			kinds := search.Kinds
			if len(args) == 1 {
				k, err := search.ParseKind(args[0])
				if err != nil {
					return err
				}
				kinds = []search.Kind{k}
			}

			rt, err := a.start("-")
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(context.WithoutCancel(cmd.Context())); cerr != nil && err == nil {
					err = cerr
				}
			}()
			dir := rt.cfg.Paths.DataDir

			for _, k := range kinds {
				files, err := search.ListSaved(dir, k.SearchType())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s (%d)\n", k.SearchType(), len(files))
				for _, f := range files {
					saved, err := search.LoadSaved(f)
					if err != nil {
						rt.log.Logger.Warn("Skipping saved search", slog.String("error", err.Error()))
						continue
					}
					fmt.Fprintf(a.stdout, "  %s  %q  %s\n",
						saved.Metadata.Timestamp, saved.Metadata.OriginalQuery, filepath.Base(f))
				}
			}
			return nil
		},
	}
}

func newSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List the stored analysis sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rt, err := a.start("-")
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(context.WithoutCancel(cmd.Context())); cerr != nil && err == nil {
					err = cerr
				}
			}()

			store, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(a.stdout, "Session persistence is disabled (SESSION.BACKEND = none)")
				return nil
			}
			sessions, err := store.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(a.stdout, "No stored sessions")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(a.stdout, "%s  updated %s\n", s.ID, s.UpdatedAt.Format(time.DateTime))
				for _, name := range s.AgentNames() {
					fmt.Fprintf(a.stdout, "  %-12s %d items\n", name, s.Agents[name])
				}
			}
			return nil
		},
	}
}
