// Package textfmt holds display-width aware string helpers shared by the
// markdown report and the terminal UI.
package textfmt

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Width returns the display width of s in terminal cells.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to at most width cells, ending with "..." when cut
// and width leaves room for it.
func Truncate(s string, width int) string {
	s = strings.TrimSpace(s)
	if width <= 0 {
		return ""
	}
	if Width(s) <= width {
		return s
	}
	if width > 3 {
		return runewidth.Truncate(s, width, "...")
	}
	return runewidth.Truncate(s, width, "")
}

// Pad truncates s and pads it with spaces to exactly width cells.
func Pad(s string, width int) string {
	s = Truncate(s, width)
	return runewidth.FillRight(s, width)
}

// Cell makes s safe for a markdown table cell: one line, pipes escaped,
// at most width cells wide (0 means unlimited).
func Cell(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width > 0 {
		s = Truncate(s, width)
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// FirstLine returns the first non-empty line of s.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
