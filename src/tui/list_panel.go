package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderListPanel renders the left panel with the failed job list.
func (m Model) renderListPanel(width, height int) string {
	listPanel := m.styles.PanelStyle(width, height, !m.detailFocused).Render(m.listView.Render())

	headerRow := lipgloss.NewStyle().
		Foreground(m.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 1).
		Render(m.listView.Delegate().Header(max(width-2-listRenderingOverhead, 0)))

	return lipgloss.JoinVertical(lipgloss.Left, headerRow, listPanel)
}
