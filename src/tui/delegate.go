package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"citriage/src/textfmt"
)

const (
	// listRenderingOverhead accounts for the panel border and the list's
	// own left padding.
	listRenderingOverhead = 4

	costWidth = 7 // $0.0123
	sizeWidth = 6 // 12.3K
)

// Delegate renders failed jobs as table rows.
type Delegate struct {
	IndexWidth int
	styles     *StyleConfig
}

func NewDelegate(styles *StyleConfig) Delegate {
	return Delegate{
		IndexWidth: 2,
		styles:     styles,
	}
}

// SetIndexWidth sizes the index column for maxIndex.
func (d *Delegate) SetIndexWidth(maxIndex int) {
	d.IndexWidth = max(len(fmt.Sprint(maxIndex)), 2)
}

func (d Delegate) Height() int {
	return 1
}

func (d Delegate) Spacing() int {
	return 0
}

func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// fixedWidth is the width of every column but the label, separators included.
func (d Delegate) fixedWidth() int {
	return d.IndexWidth + costWidth + sizeWidth + 9
}

// Header returns the column header row matching Render.
func (d Delegate) Header(width int) string {
	labelWidth := max(width-d.fixedWidth(), 0)
	return fmt.Sprintf("%*s │ %-*s │ %*s │ %s",
		d.IndexWidth, "#",
		costWidth, "Est.",
		sizeWidth, "Size",
		textfmt.Truncate("Workflow / Job", labelWidth))
}

func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(JobItem)
	if !ok {
		return
	}

	cost := "n/a"
	size := "-"
	if entry.Job.LogAvailable() {
		cost = fmt.Sprintf("$%.4f", entry.Job.EstimatedCost)
		size = humanBytes(entry.Job.CondensedBytes)
	}

	labelWidth := m.Width() - d.fixedWidth() - listRenderingOverhead
	var label string
	if labelWidth > 0 {
		label = textfmt.Pad(entry.Label(), labelWidth)
	}

	line := fmt.Sprintf("%*d │ %-*s │ %*s │ %s",
		d.IndexWidth, entry.Index,
		costWidth, cost,
		sizeWidth, size,
		label)

	style := lipgloss.NewStyle().Foreground(d.styles.TextSecondary)
	if !entry.Job.LogAvailable() {
		style = style.Foreground(d.styles.Warning)
	}
	if index == m.Index() {
		style = style.Bold(true).Foreground(d.styles.PrimaryBlue).Background(d.styles.SelectedColor)
	}

	fmt.Fprint(w, style.Render(line))
}
