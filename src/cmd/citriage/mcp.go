package main

import (
	"context"

	"github.com/spf13/cobra"

	"citriage/src/config"
	"citriage/src/logger"
	"citriage/src/mcp"
	"citriage/src/plan"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve plans and condensed logs to MCP clients over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout. Clients can build
plans for a branch, read condensed job logs and get programmatic failure
summaries without spending on the configured summarizer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		// stdout carries the protocol; logs go to stderr only.
		log := logger.NewConsoleLogger(verbose)
		a, err := newApp(ctx, cmd, log)
		if err != nil {
			return err
		}
		defer a.close()

		repo, err := a.repository(ctx)
		if err != nil {
			return err
		}
		b, err := a.builder(repo)
		if err != nil {
			return err
		}

		srv := mcp.NewServer(mcp.Config{
			Builder:       b,
			Store:         a.store,
			Repository:    repo,
			DefaultLimit:  a.cfg.Limit,
			ReportPath:    a.cfg.Paths.ReportPath(),
			LogPath:       a.cfg.Paths.LogPath(),
			CurrentBranch: a.git.CurrentBranch,
			OnPlanCreated: func(ctx context.Context, p *plan.Plan, h plan.Handle) {
				_ = a.events.PlanCreated(ctx, p, h)
			},
			Logger:  log,
			Version: version,
		})
		return srv.Run()
	},
}

func init() {
	mcpCmd.Flags().String("repo", "", "owner/repo for GitHub or org/pipeline for Buildkite (default is the origin remote)")
	mcpCmd.Flags().String("provider", config.Default().Provider.Name, "CI provider: github or buildkite")
	mcpCmd.Flags().String("plan-dir", config.Default().Paths.PlanDir, "directory for plan files")
}
