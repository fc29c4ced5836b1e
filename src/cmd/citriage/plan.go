package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"citriage/src/config"
	"citriage/src/logger"
	"citriage/src/plan"
)

// planFlags are shared by plan and run.
type planFlags struct {
	branch string
	noAI   bool
}

var planOpts planFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Fetch recent runs for a branch and save a priced plan",
	Long: `Fetches the most recent CI runs for a branch, downloads and condenses the
logs of every failed job and estimates what AI summaries would cost.

Nothing is spent: the result is saved as a plan for 'citriage execute'.

Example:
  citriage plan --branch main --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.NewConsoleLogger(verbose)
		a, err := newApp(ctx, cmd, log)
		if err != nil {
			return err
		}
		defer a.close()

		p, h, err := a.buildPlan(ctx, planOpts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderPlanSummary(p, h))
		return nil
	},
}

func init() {
	addPlanFlags(planCmd, &planOpts)
}

func addPlanFlags(cmd *cobra.Command, opts *planFlags) {
	d := config.Default()
	cmd.Flags().StringVarP(&opts.branch, "branch", "b", "", "branch to inspect (default is the checked-out branch)")
	cmd.Flags().BoolVar(&opts.noAI, "no-ai", false, "build the plan without requesting AI summaries")
	cmd.Flags().String("repo", "", "owner/repo for GitHub or org/pipeline for Buildkite (default is the origin remote)")
	cmd.Flags().String("provider", d.Provider.Name, "CI provider: github or buildkite")
	cmd.Flags().Int("limit", d.Limit, "number of recent runs to inspect")
	cmd.Flags().Int("concurrency", d.Provider.Concurrency, "job logs fetched at once")
	cmd.Flags().String("plan-dir", d.Paths.PlanDir, "directory for plan files")
	cmd.Flags().String("output-dir", d.Paths.OutputDir, "directory for the report and processing log")
}

// buildPlan runs the dry-run phase and publishes a plan-created event.
func (a *app) buildPlan(ctx context.Context, opts planFlags) (*plan.Plan, plan.Handle, error) {
	repo, err := a.repository(ctx)
	if err != nil {
		return nil, "", err
	}
	branch, err := a.branch(ctx, opts.branch)
	if err != nil {
		return nil, "", err
	}
	// The dry run starts a new processing log that execute appends to.
	b, err := a.builder(repo, plan.WithProcessingLog(a.archiver(), verbose))
	if err != nil {
		return nil, "", err
	}

	p, h, err := b.Build(ctx, plan.Request{
		Repository:  repo,
		Branch:      branch,
		Limit:       a.cfg.Limit,
		AIRequested: !opts.noAI,
		ReportPath:  a.cfg.Paths.ReportPath(),
		LogPath:     a.cfg.Paths.LogPath(),
	})
	if err != nil {
		return nil, "", err
	}
	_ = a.events.PlanCreated(ctx, p, h)
	return p, h, nil
}
