package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"citriage/src/logger"
)

var (
	runPlanOpts    planFlags
	runExecuteOpts executeFlags
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a plan and execute it in one go",
	Long: `Runs 'citriage plan' followed by 'citriage execute' on the plan that was
just written. The cost question is still asked unless --yes is given.

Example:
  citriage run --branch main --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.NewConsoleLogger(verbose)
		a, err := newApp(ctx, cmd, log)
		if err != nil {
			return err
		}
		defer a.close()

		out := cmd.OutOrStdout()
		p, h, err := a.buildPlan(ctx, runPlanOpts)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, renderPlanSummary(p, h))

		res, err := a.execute(ctx, h, runExecuteOpts.yes)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, renderResult(res))
		return nil
	},
}

func init() {
	addPlanFlags(runCmd, &runPlanOpts)
	addExecuteFlags(runCmd, &runExecuteOpts)
}
