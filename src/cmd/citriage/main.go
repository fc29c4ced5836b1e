// Package main provides the citriage command line tool.
// It wires configuration, the CI provider, the plan store and the
// summarizer together using the Cobra framework.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "citriage/src/buildkite"     // Import for provider registration
	_ "citriage/src/githubactions" // Import for provider registration
	"citriage/src/provider"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "citriage",
	Short: "citriage - cost-gated triage of failed CI runs",
	Long: `citriage inspects recent CI runs for a branch and explains the failures.

It works in two phases:
- plan:    fetch runs and failed job logs, condense them and price an AI summary
- execute: ask before spending, summarize each failed job and write a report

The plan is saved between the phases so the cost can be reviewed first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/citriage/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")

	rootCmd.AddCommand(planCmd, executeCmd, runCmd, showCmd, plansCmd, mcpCmd, eventsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", provider.WrapError(err))
		os.Exit(1)
	}
}
