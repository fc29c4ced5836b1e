package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// View manages the list of failed jobs.
type View struct {
	list     list.Model
	delegate *Delegate
}

func NewView(styles *StyleConfig) View {
	delegate := NewDelegate(styles)
	l := list.New([]list.Item{}, &delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)

	return View{
		list:     l,
		delegate: &delegate,
	}
}

func (v View) Update(msg tea.Msg) (View, tea.Cmd) {
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *View) SetSize(width, height int) {
	v.list.SetSize(width, height)
}

// SetItems replaces the list items and resets the selection.
func (v *View) SetItems(items []JobItem) {
	maxIndex := 0
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
		maxIndex = max(maxIndex, item.Index)
	}
	v.delegate.SetIndexWidth(maxIndex)
	v.list.SetItems(listItems)
	v.list.Select(0)
}

// Selected returns the currently selected job.
func (v View) Selected() (JobItem, bool) {
	if len(v.list.Items()) == 0 {
		return JobItem{}, false
	}
	item, ok := v.list.SelectedItem().(JobItem)
	return item, ok
}

func (v View) Len() int {
	return len(v.list.Items())
}

func (v View) Render() string {
	return v.list.View()
}

func (v View) Delegate() *Delegate {
	return v.delegate
}
