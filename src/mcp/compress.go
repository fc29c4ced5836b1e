package mcp

import (
	"strings"
	"unicode/utf8"

	"citriage/src/patterns"
)

// minPrefixLength is the shortest shared prefix worth replacing with "...".
const minPrefixLength = 20

// Compact prepares a condensed log for an LLM client: every line goes
// through patterns.Display and a long prefix shared by all lines (logger
// names, runner paths) is replaced with "... ".
func Compact(condensed string) string {
	if condensed == "" {
		return ""
	}
	lines := strings.Split(condensed, "\n")
	for i, line := range lines {
		lines[i] = patterns.Display(line)
	}
	return strings.Join(removeCommonPrefix(lines), "\n")
}

// commonPrefix returns the longest prefix shared by all lines, or "" when
// there are fewer than two lines or the prefix is too short to matter.
func commonPrefix(lines []string) string {
	if len(lines) < 2 {
		return ""
	}

	prefix := lines[0]
	for _, line := range lines[1:] {
		for len(prefix) > 0 && !strings.HasPrefix(line, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			return ""
		}
	}
	for len(prefix) > 0 && !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}

	if len(prefix) < minPrefixLength {
		return ""
	}
	return prefix
}

func removeCommonPrefix(lines []string) []string {
	prefix := commonPrefix(lines)
	if prefix == "" {
		return lines
	}

	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = "... " + line[len(prefix):]
	}
	return result
}
