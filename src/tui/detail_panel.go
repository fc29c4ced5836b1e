package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"citriage/src/textfmt"
)

// renderDetail renders the metadata and condensed log of a job, wrapped
// to maxWidth.
func (m Model) renderDetail(item JobItem, maxWidth int) string {
	var content strings.Builder
	job := item.Job

	label := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Bold(true)
	value := lipgloss.NewStyle().Foreground(m.styles.TextPrimary)
	field := func(name, v string) {
		if v == "" {
			return
		}
		for i, line := range WrapLog(name+": "+v, maxWidth) {
			if i == 0 && len(line) > len(name) {
				fmt.Fprintln(&content, label.Render(line[:len(name)+1])+value.Render(line[len(name)+1:]))
				continue
			}
			fmt.Fprintln(&content, value.Render(line))
		}
	}

	field("Run", fmt.Sprintf("#%d (%s)", job.RunNumber, job.RunID))
	field("URL", job.RunURL)
	field("Conclusion", job.JobConclusion)
	if !job.JobStartedAt.IsZero() {
		field("Started", job.JobStartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	}

	if !job.LogAvailable() {
		fmt.Fprintln(&content)
		warn := lipgloss.NewStyle().Foreground(m.styles.Warning).Bold(true)
		for _, line := range WrapLog("Log unavailable: "+job.FetchError, maxWidth) {
			fmt.Fprintln(&content, warn.Render(line))
		}
		return content.String()
	}

	field("Log", fmt.Sprintf("%s raw → %s condensed", humanBytes(job.RawBytes), humanBytes(job.CondensedBytes)))
	field("AI estimate", fmt.Sprintf("$%.4f", job.EstimatedCost))
	fmt.Fprintln(&content)

	normal := lipgloss.NewStyle().Foreground(m.styles.TextSecondary)
	errStyle := lipgloss.NewStyle().Foreground(m.styles.Failed).Bold(true)
	for _, line := range strings.Split(job.Condensed(), "\n") {
		style := normal
		if isErrorLine(line) {
			style = errStyle
		}
		for _, wrapped := range WrapLog(line, maxWidth) {
			fmt.Fprintln(&content, style.Render(wrapped))
		}
	}
	return content.String()
}

// refreshDetail loads the selected job into the viewport.
func (m *Model) refreshDetail() {
	item, ok := m.listView.Selected()
	if !ok {
		m.detailViewport.SetContent("")
		m.selectedIndex = 0
		return
	}
	if item.Index == m.selectedIndex {
		return
	}
	m.selectedIndex = item.Index
	m.detailViewport.SetContent(m.renderDetail(item, m.detailViewport.Width-2))
	m.detailViewport.GotoTop()
}

func (m Model) renderDetailPanel(width, height int) string {
	item, ok := m.listView.Selected()
	if !ok {
		placeholder := lipgloss.NewStyle().Padding(0, 1).Render(" ")
		empty := m.styles.PanelStyle(width, height, false).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(m.styles.TextSecondary).
			Faint(true).
			Render("No failed jobs match")
		return lipgloss.JoinVertical(lipgloss.Left, placeholder, empty)
	}

	headerRow := lipgloss.NewStyle().
		Foreground(m.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 1).
		Render(textfmt.Truncate(item.Label(), width-2))

	panel := m.styles.PanelStyle(width, height, m.detailFocused).Render(m.detailViewport.View())
	return lipgloss.JoinVertical(lipgloss.Left, headerRow, panel)
}
