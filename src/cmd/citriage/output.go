package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"citriage/src/execute"
	"citriage/src/plan"
	"citriage/src/textfmt"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F6368")).
			Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8AB4F8"))
	costStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FBBC04"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EA4335"))
	passedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#34A853"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA0A6"))
)

// renderPlanSummary is the cost banner printed after a plan is saved.
func renderPlanSummary(p *plan.Plan, h plan.Handle) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Plan %s", p.ID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s @ %s\n", p.Repository, p.Branch)
	fmt.Fprintf(&b, "%s  %s  %s\n",
		passedStyle.Render(fmt.Sprintf("%d passed", len(p.Passed))),
		failedStyle.Render(fmt.Sprintf("%d failed", len(p.Failed))),
		dimStyle.Render(fmt.Sprintf("%d pending", len(p.Pending))))
	fmt.Fprintf(&b, "Failed jobs: %d, eligible for AI: %d\n", len(p.FailedJobs), p.EligibleJobs)

	switch {
	case !p.AIRequested:
		b.WriteString(dimStyle.Render("AI summaries not requested"))
	case p.EligibleJobs == 0:
		b.WriteString(dimStyle.Render("No job has enough log for an AI summary"))
	default:
		b.WriteString("Estimated AI cost: " + costStyle.Render(fmt.Sprintf("$%.4f", p.EstimatedCost)))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Saved to " + h.String()))
	return bannerStyle.Render(b.String())
}

// renderResult is printed after the execute phase.
func renderResult(res *execute.Result) string {
	var b strings.Builder
	if res.ReportErr != nil {
		b.WriteString(failedStyle.Render(fmt.Sprintf("Report not written: %v", res.ReportErr)))
	} else {
		b.WriteString(titleStyle.Render("Report " + res.ReportPath))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Gate: %s (proceed=%t)\n", res.Decision.Path, res.Decision.Proceed)
	fmt.Fprintf(&b, "AI calls: %d succeeded, %d failed\n", res.AICalls, res.AIFailures)
	fmt.Fprintf(&b, "Cost: projected %s, actual %s\n",
		fmt.Sprintf("$%.4f", res.Plan.EstimatedCost),
		costStyle.Render(fmt.Sprintf("$%.4f", res.ActualCost)))
	if res.LogErr != nil {
		b.WriteString(failedStyle.Render(fmt.Sprintf("Processing log not written: %v", res.LogErr)))
	} else {
		b.WriteString(dimStyle.Render("Processing log " + res.LogPath))
	}
	return bannerStyle.Render(b.String())
}

const (
	planColumnWidth   = 44
	branchColumnWidth = 24
)

// renderPlanList formats store entries as a plain table.
func renderPlanList(entries []plan.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %-20s  %6s  %8s  %10s\n",
		textfmt.Pad("PLAN", planColumnWidth), textfmt.Pad("BRANCH", branchColumnWidth),
		"CREATED", "FAILED", "ELIGIBLE", "COST")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s  %-20s  %6d  %8d  %10s\n",
			textfmt.Pad(e.ID, planColumnWidth),
			textfmt.Pad(e.Branch, branchColumnWidth),
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.FailedJobs, e.EligibleJobs,
			fmt.Sprintf("$%.4f", e.EstimatedCost))
	}
	return b.String()
}
