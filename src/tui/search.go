package tui

import (
	"strings"
)

// applyFilter narrows the list by workflow filter and search query. The
// query matches job and workflow names and the condensed log.
func (m *Model) applyFilter() {
	filter := m.header.Filter()
	query := strings.ToLower(m.searchQuery)

	var filtered []JobItem
	for _, item := range m.items {
		if filter != allWorkflows && item.Job.WorkflowName != filter {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(item.Label()), query) &&
			!strings.Contains(strings.ToLower(item.Job.Condensed()), query) &&
			!strings.Contains(strings.ToLower(item.Job.FetchError), query) {
			continue
		}
		filtered = append(filtered, item)
	}

	m.listView.SetItems(filtered)
	m.refreshDetail()
}
