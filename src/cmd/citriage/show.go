package main

import (
	"github.com/spf13/cobra"

	"citriage/src/config"
	"citriage/src/logger"
	"citriage/src/plan"
	"citriage/src/tui"
)

var showPlanRef string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Browse the failed jobs of a plan in the terminal",
	Long: `Opens an interactive browser over a saved plan: failed jobs on the left,
the selected job's condensed log on the right. Press / to search, tab to
cycle workflows and q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd, logger.NewSilentLogger())
		if err != nil {
			return err
		}
		defer a.close()

		p, h, err := plan.Resolve(ctx, a.store, plan.Handle(showPlanRef))
		if err != nil {
			return err
		}
		return tui.Run(p, h)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showPlanRef, "plan", "p", "", "plan file or ID (default is the most recent plan)")
	showCmd.Flags().String("plan-dir", config.Default().Paths.PlanDir, "directory for plan files")
}
