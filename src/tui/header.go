package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"citriage/src/plan"
)

// Header is the top status bar: plan identity, run outcome counts,
// workflow filter and search state.
type Header struct {
	plan           *plan.Plan
	selectedFilter string
	workflows      []string
	searchQuery    string
	searchMode     bool
	styles         *StyleConfig
}

const allWorkflows = "ALL"

func NewHeader(p *plan.Plan, styles *StyleConfig) Header {
	seen := make(map[string]bool)
	var workflows []string
	for _, job := range p.FailedJobs {
		if job.WorkflowName != "" && !seen[job.WorkflowName] {
			seen[job.WorkflowName] = true
			workflows = append(workflows, job.WorkflowName)
		}
	}
	return Header{
		plan:           p,
		selectedFilter: allWorkflows,
		workflows:      workflows,
		styles:         styles,
	}
}

func (h Header) Filter() string {
	return h.selectedFilter
}

// CycleFilter moves to the next workflow, wrapping back to ALL.
func (h *Header) CycleFilter() {
	filters := append([]string{allWorkflows}, h.workflows...)
	current := 0
	for i, f := range filters {
		if f == h.selectedFilter {
			current = i
			break
		}
	}
	h.selectedFilter = filters[(current+1)%len(filters)]
}

func (h *Header) SetSearch(query string, mode bool) {
	h.searchQuery = query
	h.searchMode = mode
}

func (h Header) Render(width int) string {
	title := h.plan.Branch
	if h.plan.Repository != "" {
		title = h.plan.Repository + "@" + h.plan.Branch
	}
	titleText := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 1).
		Render(title)

	counts := lipgloss.JoinHorizontal(lipgloss.Left,
		lipgloss.NewStyle().Foreground(h.styles.Passed).Padding(0, 1).Render(fmt.Sprintf("✓ %d", len(h.plan.Passed))),
		lipgloss.NewStyle().Foreground(h.styles.Failed).Padding(0, 1).Render(fmt.Sprintf("✗ %d", len(h.plan.Failed))),
		lipgloss.NewStyle().Foreground(h.styles.Pending).Padding(0, 1).Render(fmt.Sprintf("… %d", len(h.plan.Pending))),
	)

	cost := lipgloss.NewStyle().
		Foreground(h.styles.TextSecondary).
		Padding(0, 1).
		Render(fmt.Sprintf("AI est. $%.4f (%d jobs)", h.plan.EstimatedCost, h.plan.EligibleJobs))

	filter := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Padding(0, 1).
		Render("Workflow: " + h.selectedFilter)

	var searchText string
	switch {
	case h.searchMode:
		searchText = fmt.Sprintf("Search: %s█", h.searchQuery)
	case h.searchQuery != "":
		searchText = "Search: " + h.searchQuery
	default:
		searchText = "[/] search"
	}
	searchStyle := lipgloss.NewStyle().Foreground(h.styles.TextSecondary).Padding(0, 1)
	if h.searchMode {
		searchStyle = searchStyle.Foreground(h.styles.PrimaryBlue)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Left, titleText, counts, cost, filter, searchStyle.Render(searchText))
	if lipgloss.Width(content) > width {
		content = ansi.Truncate(content, width, "…")
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor).
		Width(width).
		Render(content)
}
