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
	"strings"

	"github.com/nlpodyssey/productintel/asyncqueue"
	"github.com/nlpodyssey/productintel/asynctask"
	"github.com/nlpodyssey/productintel/dashboard"
	"github.com/nlpodyssey/productintel/orchestrator"
	"github.com/nlpodyssey/productintel/report"
	"github.com/spf13/cobra"
)

// DefaultProduct is analyzed when no product is given.
const DefaultProduct = "Adidas Samba sneakers"

const title = "Multi-Agent E-commerce Analysis System with Executive Dashboard"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "productintel [product]",
		Short: title,
		Long: title + `

Three specialist agents research the product's pricing, its competitors and
its customer sentiment in parallel. An orchestrator agent synthesizes their
findings into a strategic analysis, which is saved as JSON and rendered as an
HTML executive dashboard.`,
		Example: `  productintel "Nike Air Jordan 1"
  productintel "iPhone 15" --verbose
  productintel "Tesla Model 3" --no-save --no-dashboard
  productintel "Adidas Stan Smith" --session-id session-1234
  productintel "Samsung Galaxy" --simple
  productintel --dashboard-only results/analysis_result_Adidas_Stan_Smith_20250829_090526.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.dashboardOnly != "" {
				return a.runDashboard(cmd.Context(), a.dashboardOnly)
			}
			if a.watch {
				return fmt.Errorf("--watch requires --dashboard-only")
			}
			query := DefaultProduct
			if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
				query = strings.TrimSpace(args[0])
			}
			return a.runAnalysis(cmd.Context(), query)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "configuration file (default: config.ini next to the executable or in the working directory)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	pf.BoolVar(&a.noBrowser, "no-browser", false, "do not open the dashboard in the browser")

	f := root.Flags()
	f.StringVar(&a.sessionID, "session-id", "", "session ID to associate with this run")
	f.BoolVar(&a.noSave, "no-save", false, "do not save results to file")
	f.BoolVar(&a.noDashboard, "no-dashboard", false, "do not generate the executive dashboard")
	f.BoolVar(&a.simple, "simple", false, "run in simple mode, without telemetry or session tracking")
	f.StringVar(&a.dashboardOnly, "dashboard-only", "", "generate the dashboard from an existing JSON analysis file")
	root.PersistentFlags().BoolVar(&a.watch, "watch", false, "with a dashboard source, re-render it whenever the file changes")

	root.AddCommand(newDashboardCmd(a), newEvaluateCmd(a), newSearchesCmd(a), newSessionsCmd(a))
	return root
}

func (a *app) printBanner(query string) {
	fmt.Fprintln(a.stdout, title)
	fmt.Fprintln(a.stdout, strings.Repeat("=", 61))
	fmt.Fprintf(a.stdout, "Analyzing: %s\n", query)
	switch {
	case a.simple:
		fmt.Fprintln(a.stdout, "Mode: Simple (no telemetry)")
	case a.sessionID != "":
		fmt.Fprintln(a.stdout, "Mode: Full featured with session tracking")
	default:
		fmt.Fprintln(a.stdout, "Mode: Full featured")
	}
	if a.noDashboard {
		fmt.Fprintln(a.stdout, "Dashboard: Disabled")
	} else {
		fmt.Fprintln(a.stdout, "Dashboard: Executive BI dashboard will be generated")
	}
}

func (a *app) runAnalysis(ctx context.Context, query string) (err error) {
	a.printBanner(query)

	rt, err := a.start("")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	logger := rt.log.Logger

	sessionID := ""
	if !a.simple {
		sessionID = a.sessionID
		if sessionID == "" {
			sessionID = orchestrator.DefaultSessionID(a.now())
		}
		if err := rt.enableTracing(ctx, sessionID); err != nil {
			return err
		}
	}

	orch := &orchestrator.Orchestrator{
		Config:   rt.cfg,
		Provider: a.newProvider(rt.cfg),
		Searcher: rt.searcher(),
		Callback: orchestrator.NewCallbackPublisher(rt.cfg.Callback.URL),
		Events:   asyncqueue.New[orchestrator.Event](),
		Simple:   a.simple,
		Now:      a.now,
	}
	if !a.simple {
		if orch.Store, err = rt.openStore(ctx); err != nil {
			return err
		}
	}

	printer := orchestrator.NewConsolePrinter(a.stdout, a.verbose)
	drained := asynctask.CreateTaskNoValue(ctx, func(context.Context) error {
		printer.Drain(orch.Events)
		return nil
	})

	logger.Info("Starting multi-agent analysis", slog.String("query", query))
	doc := orch.Analyze(ctx, query, sessionID)
	orch.Events.Close()
	drained.Await()

	savedPath := ""
	if !a.noSave {
		if savedPath, err = report.Save(doc, rt.cfg.Paths.ResultsDir, a.now()); err != nil {
			logger.Error("Error saving results", slog.String("error", err.Error()))
			savedPath = ""
		} else {
			logger.Info("Results saved", slog.String("path", savedPath))
		}
	}

	dashboardPath := ""
	if !a.noDashboard && doc.Succeeded() {
		if dashboardPath, err = dashboard.Generate(doc, rt.cfg.Paths.ResultsDir); err != nil {
			logger.Error("Error generating dashboard", slog.String("error", err.Error()))
			dashboardPath = ""
		} else if !a.noBrowser {
			logger.Info("Opening executive dashboard in browser")
			if err := a.openBrowser(dashboardPath); err != nil {
				logger.Warn("Could not open browser", slog.String("error", err.Error()))
			}
		}
	}

	p := report.NewPrinter(a.stdout)
	p.Summary(doc)
	p.Outcome(doc, savedPath, dashboardPath)
	return nil
}
