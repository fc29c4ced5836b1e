package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"citriage/src/condense"
)

// WrapLog hard-wraps every line of a log to width cells, keeping
// indentation intact.
func WrapLog(text string, width int) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if width <= 0 {
			out = append(out, line)
			continue
		}
		out = append(out, strings.Split(ansi.Hardwrap(line, width, true), "\n")...)
	}
	return out
}

// isErrorLine reports whether line carries one of the failure markers the
// condenser keys on.
func isErrorLine(line string) bool {
	lower := strings.ToLower(line)
	for _, token := range condense.DefaultSignalTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// humanBytes renders n as 512B, 1.2K or 3.4M.
func humanBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fK", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/(1024*1024))
	}
}
