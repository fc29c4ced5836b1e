// Package sanitize provides utilities for cleaning raw CI log output.
// It removes ANSI escape codes, raw control characters and the timestamp
// prefixes CI log streamers put on every line.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

var (
	// Buildkite timestamp markers: \x1b_bk;t=...\x07
	buildkiteTimestamp = regexp.MustCompile(`\x1b_bk;t=[0-9]+\x07`)

	// Leading timestamps as emitted by GitHub Actions and most log shippers:
	// 2024-05-21T10:00:05.1234567Z, 2024-05-21 10:00:05,123, [2024-05-21T10:00:05Z]
	timestampPrefix = regexp.MustCompile(`^\[?\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?\]?\s?`)
)

// StripANSI removes ANSI escape codes and Buildkite timestamp markers.
func StripANSI(s string) string {
	s = buildkiteTimestamp.ReplaceAllString(s, "")
	return ansi.Strip(s)
}

// StripControl removes control characters other than tab and newline.
func StripControl(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, s)
}

func isControl(r rune) bool {
	return (r < 0x20 && r != '\t' && r != '\n') || r == 0x7f
}

// StripTimestamp removes a leading timestamp from a single line.
func StripTimestamp(line string) string {
	return timestampPrefix.ReplaceAllString(line, "")
}

// Clean strips escape sequences, normalizes line endings and drops control
// characters. A bare carriage return inside a line is a terminal overwrite
// (progress bars), so only the text after the last one is kept.
func Clean(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if idx := strings.LastIndex(strings.TrimRight(line, "\r"), "\r"); idx >= 0 {
			line = line[idx+1:]
		}
		lines[i] = StripControl(line)
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
