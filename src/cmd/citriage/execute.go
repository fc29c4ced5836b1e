package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"citriage/src/config"
	"citriage/src/execute"
	"citriage/src/gate"
	"citriage/src/logger"
	"citriage/src/plan"
	"citriage/src/tui"
)

// executeFlags are shared by execute and run.
type executeFlags struct {
	planRef string
	yes     bool
}

var executeOpts executeFlags

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Summarize the failed jobs of a saved plan and write the report",
	Long: `Loads a plan (the most recent one unless --plan is given), asks before
spending money on AI summaries and writes a markdown report plus a
processing log.

Set CITRIAGE_AUTO_CONFIRM=1 or pass --yes to skip the question. Without a
terminal and without an override no AI call is made.

Example:
  citriage execute --plan .citriage/plans/plan-20240102T030405-1a2b3c4d.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.NewConsoleLogger(verbose)
		a, err := newApp(ctx, cmd, log)
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.execute(ctx, plan.Handle(executeOpts.planRef), executeOpts.yes)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderResult(res))
		return nil
	},
}

func init() {
	addExecuteFlags(executeCmd, &executeOpts)
	executeCmd.Flags().StringVarP(&executeOpts.planRef, "plan", "p", "", "plan file or ID (default is the most recent plan)")
	executeCmd.Flags().String("plan-dir", config.Default().Paths.PlanDir, "directory for plan files")
}

func addExecuteFlags(cmd *cobra.Command, opts *executeFlags) {
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "spend without asking (same as "+gate.EnvAutoConfirm+"=1)")
}

// execute runs the execute phase for h and publishes a report event.
func (a *app) execute(ctx context.Context, h plan.Handle, yes bool) (*execute.Result, error) {
	interactive := gate.IsInteractive(os.Stdin)
	ex := a.executor(prompterFor(interactive))

	res, err := ex.Run(ctx, execute.Options{
		Handle:      h,
		AutoConfirm: yes || gate.AutoConfirmFromEnv(os.Getenv),
		Interactive: interactive,
	})
	if err != nil {
		return res, err
	}
	_ = a.events.ReportCompleted(ctx, res)
	return res, nil
}

// prompterFor uses the full-screen prompt when both ends are terminals and
// a plain line prompt otherwise.
func prompterFor(interactive bool) gate.Prompter {
	if interactive && gate.IsInteractive(os.Stderr) {
		return &tui.ConfirmPrompter{In: os.Stdin, Out: os.Stderr}
	}
	return &gate.LinePrompter{In: os.Stdin, Out: os.Stderr}
}
