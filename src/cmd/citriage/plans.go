package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"citriage/src/config"
	"citriage/src/logger"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List saved plans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd, logger.NewConsoleLogger(verbose))
		if err != nil {
			return err
		}
		defer a.close()

		entries, err := a.store.List(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No plans found. Run 'citriage plan' first.")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), renderPlanList(entries))
		return nil
	},
}

func init() {
	plansCmd.Flags().String("plan-dir", config.Default().Paths.PlanDir, "directory for plan files")
}
