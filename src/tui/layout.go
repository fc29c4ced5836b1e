package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type panelDimensions struct {
	availableHeight int
	leftPanelWidth  int
	rightPanelWidth int
}

// calculateDimensions computes panel sizes from the terminal size. Render
// and resize both use it so they agree.
func (m Model) calculateDimensions() panelDimensions {
	headerHeight := lipgloss.Height(m.header.Render(m.width))
	// header + help line + panel column header row + panel borders
	availableHeight := max(m.height-headerHeight-1-1-2, 1)

	// Job list 40% | detail 60%
	leftPanelWidth := int(float64(m.width) * 0.4)
	rightPanelWidth := m.width - leftPanelWidth

	return panelDimensions{
		availableHeight: availableHeight,
		leftPanelWidth:  leftPanelWidth,
		rightPanelWidth: rightPanelWidth,
	}
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.header.Render(m.width)

	if len(m.items) == 0 {
		empty := lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			PaddingTop(2).
			Foreground(m.styles.Passed).
			Render("No failed jobs in this plan.")
		return lipgloss.JoinVertical(lipgloss.Left, header, empty, m.renderHelpText())
	}

	dims := m.calculateDimensions()
	left := m.renderListPanel(dims.leftPanelWidth, dims.availableHeight)
	right := m.renderDetailPanel(dims.rightPanelWidth, dims.availableHeight)
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(lipgloss.Left, header, main, m.renderHelpText())
}

// renderHelpText renders context-aware key help.
func (m Model) renderHelpText() string {
	keyStyle := lipgloss.NewStyle().Foreground(m.styles.PrimaryBlue).Bold(true)
	sepStyle := lipgloss.NewStyle().Foreground(m.styles.TextSecondary)
	sep := sepStyle.Render(" • ")

	var help string
	switch {
	case m.searchMode:
		help = fmt.Sprintf("%s: Apply%s%s: Clear", keyStyle.Render("Enter"), sep, keyStyle.Render("Esc"))
	case m.detailFocused:
		help = fmt.Sprintf("%s: Scroll%s%s: Back%s%s: Quit",
			keyStyle.Render("j/k"), sep, keyStyle.Render("Esc"), sep, keyStyle.Render("q"))
	default:
		help = fmt.Sprintf("%s: Nav%s%s: Log%s%s: Workflow%s%s: Search%s%s: Quit",
			keyStyle.Render("j/k"), sep,
			keyStyle.Render("Enter"), sep,
			keyStyle.Render("Tab"), sep,
			keyStyle.Render("/"), sep,
			keyStyle.Render("q"))
	}
	return m.styles.HelpStyle().MaxWidth(m.width).Render(help)
}

// resizeComponents fits the list and viewport to the terminal.
func (m *Model) resizeComponents() {
	dims := m.calculateDimensions()

	m.listView.SetSize(dims.leftPanelWidth-2, dims.availableHeight)

	m.detailViewport.Width = dims.rightPanelWidth - 2
	m.detailViewport.Height = dims.availableHeight

	// Rewrap for the new width.
	m.selectedIndex = 0
	m.detailViewport.SetContent("")
	m.refreshDetail()
}
