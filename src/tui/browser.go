// Package tui provides the terminal UI: the plan browser behind
// `citriage show` and the bubbletea confirmation prompt for the AI gate.
package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"citriage/src/plan"
)

// Model is the plan browser: failed jobs on the left, the selected job's
// condensed log on the right.
type Model struct {
	plan   *plan.Plan
	handle plan.Handle
	items  []JobItem

	header         Header
	listView       View
	detailViewport viewport.Model
	styles         *StyleConfig

	width, height int
	ready         bool
	detailFocused bool
	searchMode    bool
	searchQuery   string
	selectedIndex int
}

// NewBrowser creates a browser for p.
func NewBrowser(p *plan.Plan, h plan.Handle) Model {
	styles := DefaultStyles()
	m := Model{
		plan:           p,
		handle:         h,
		items:          itemsOf(p),
		header:         NewHeader(p, styles),
		listView:       NewView(styles),
		detailViewport: viewport.New(0, 0),
		styles:         styles,
	}
	m.listView.SetItems(m.items)
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeComponents()
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

		if m.detailFocused {
			switch msg.String() {
			case "esc", "left", "h":
				m.detailFocused = false
				return m, nil
			}
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "/":
			m.searchMode = true
			m.header.SetSearch(m.searchQuery, true)
			return m, nil
		case "tab":
			m.header.CycleFilter()
			m.applyFilter()
			return m, nil
		case "enter", "right", "l":
			if _, ok := m.listView.Selected(); ok {
				m.detailFocused = true
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.listView, cmd = m.listView.Update(msg)
		m.refreshDetail()
		return m, cmd
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.searchMode = false
		m.searchQuery = ""
	case tea.KeyEnter:
		m.searchMode = false
	case tea.KeyBackspace:
		if r := []rune(m.searchQuery); len(r) > 0 {
			m.searchQuery = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchQuery += string(msg.Runes)
	default:
		return m, nil
	}
	m.header.SetSearch(m.searchQuery, m.searchMode)
	m.applyFilter()
	return m, nil
}

// Run shows the browser full screen until the user quits.
func Run(p *plan.Plan, h plan.Handle) error {
	_, err := tea.NewProgram(NewBrowser(p, h), tea.WithAltScreen()).Run()
	return err
}
