// Package gate decides whether a paid summarization step may run.
//
// The gate fails closed: anything short of an explicit override or an
// explicit "yes" at an interactive prompt means no money is spent.
package gate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"citriage/src/logger"
	"golang.org/x/term"
)

// EnvAutoConfirm is the environment variable that skips the prompt.
const EnvAutoConfirm = "CITRIAGE_AUTO_CONFIRM"

// Path records which rule produced a decision.
type Path string

const (
	PathNoEligibleJobs      Path = "no-eligible-jobs"
	PathNotRequested        Path = "not-requested"
	PathAutoConfirm         Path = "auto-confirm"
	PathInteractiveAccepted Path = "interactive-accepted"
	PathInteractiveDeclined Path = "interactive-declined"
	PathNonInteractive      Path = "non-interactive"
)

// Input is everything the gate looks at.
type Input struct {
	Cost         float64
	EligibleJobs int
	AutoConfirm  bool
	Interactive  bool
	// Requested is false when the plan was built with AI summaries disabled.
	Requested bool
}

// Prompt is shown to the user by a Prompter.
type Prompt struct {
	Cost         float64
	EligibleJobs int
}

// Message is the question asked at the prompt.
func (p Prompt) Message() string {
	return fmt.Sprintf("Summarize %d failed job(s) with AI for an estimated $%.4f?", p.EligibleJobs, p.Cost)
}

// Prompter asks the user to confirm a spend.
type Prompter interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Decision is the outcome of the gate plus the facts it was based on.
type Decision struct {
	Proceed      bool
	Path         Path
	Cost         float64
	EligibleJobs int
	// Err is set when an interactive prompt failed; the decision is then a decline.
	Err error
}

func (d Decision) String() string {
	s := fmt.Sprintf("gate decision: projected_cost=$%.4f eligible_jobs=%d path=%s proceed=%t",
		d.Cost, d.EligibleJobs, d.Path, d.Proceed)
	if d.Err != nil {
		s += fmt.Sprintf(" prompt_error=%q", d.Err.Error())
	}
	return s
}

// Decide applies the rules in order and logs the result.
func Decide(ctx context.Context, in Input, prompter Prompter, log logger.Logger) Decision {
	d := decide(ctx, in, prompter)
	log.Info("%s", d)
	return d
}

func decide(ctx context.Context, in Input, prompter Prompter) Decision {
	d := Decision{Cost: in.Cost, EligibleJobs: in.EligibleJobs}

	switch {
	case in.EligibleJobs <= 0:
		d.Path = PathNoEligibleJobs
	case !in.Requested:
		d.Path = PathNotRequested
	case in.AutoConfirm:
		d.Path = PathAutoConfirm
		d.Proceed = true
	case in.Interactive && prompter != nil:
		ok, err := prompter.Confirm(ctx, Prompt{Cost: in.Cost, EligibleJobs: in.EligibleJobs})
		d.Err = err
		if ok && err == nil {
			d.Path = PathInteractiveAccepted
			d.Proceed = true
		} else {
			d.Path = PathInteractiveDeclined
		}
	default:
		d.Path = PathNonInteractive
	}
	return d
}

// AutoConfirmFromEnv reports whether EnvAutoConfirm holds a truthy value.
func AutoConfirmFromEnv(getenv func(string) string) bool {
	return IsTruthy(getenv(EnvAutoConfirm))
}

// IsTruthy accepts 1, true, yes and y in any case.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
