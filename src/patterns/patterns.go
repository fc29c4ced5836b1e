// Package patterns reduces log lines to comparable shapes.
//
// Fingerprint is aggressive and is used to decide whether two lines say the
// same thing with different volatile details. Display is conservative and is
// used when a line is shown to a reader.
package patterns

import (
	"regexp"
	"strings"
)

var (
	// 2024-05-21T10:00:05.123Z, 2024-05-21 10:00:05,123
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`)

	// 10:00:05.123, 10:00:05
	clockPattern = regexp.MustCompile(`\b\d{2}:\d{2}:\d{2}(?:[.,]\d+)?\b`)

	uuidPattern = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	// Container IDs, git SHAs.
	longHashPattern = regexp.MustCompile(`\b[a-f0-9]{12,}\b`)

	hexAddressPattern = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)

	// 1.25s, 300ms, 2m
	durationPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?(?:ns|us|µs|ms|s|m|h)\b`)

	numberPattern = regexp.MustCompile(`\b\d+\b`)

	// Absolute paths with 3+ directories; keeps file name and line number.
	longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Fingerprint masks every volatile token in line. Two lines with equal
// fingerprints differ only in timestamps, identifiers, addresses or counts.
func Fingerprint(line string) string {
	line = timestampPattern.ReplaceAllString(line, "[TS]")
	line = clockPattern.ReplaceAllString(line, "[TS]")
	line = uuidPattern.ReplaceAllString(line, "[UUID]")
	line = hexAddressPattern.ReplaceAllString(line, "[HEX]")
	line = longHashPattern.ReplaceAllString(line, "[HASH]")
	line = durationPattern.ReplaceAllString(line, "[DUR]")
	line = numberPattern.ReplaceAllString(line, "[N]")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// Display shortens a line for presentation while keeping line numbers and
// file names intact.
//
//	/home/runner/work/app/app/src/main.go:42 → .../main.go:42
func Display(line string) string {
	line = uuidPattern.ReplaceAllString(line, "<UUID>")
	line = hexAddressPattern.ReplaceAllString(line, "<HEX>")
	line = longPathPattern.ReplaceAllString(line, ".../$1")
	line = longHashPattern.ReplaceAllStringFunc(line, func(h string) string {
		return h[:7]
	})
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}
