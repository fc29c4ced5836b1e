package summarize

import (
	"fmt"
	"regexp"
	"strings"

	"citriage/src/patterns"
)

const (
	maxFailingTests = 10
	maxKeyLines     = 5
)

var (
	// ImportError: ..., AssertionError, java.lang.NullPointerException
	typedErrorPattern   = regexp.MustCompile(`\b[A-Z][A-Za-z0-9_.]*(Error|Exception)\b`)
	leadingErrorPattern = regexp.MustCompile(`(?i)^\s*(error|fatal|panic)\b`)
	ghAnnotationPattern = regexp.MustCompile(`^##\[(error|warning)\]`)
	genericExitPattern  = regexp.MustCompile(`(?i)process completed with exit code \d+`)

	exitCodePattern = regexp.MustCompile(`(?i)exit (?:code|status)[: ]+(\d+)`)

	// go test, pytest, jest/mocha, rspec, maven surefire
	failingTestPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*--- FAIL: (\S+)`),
		regexp.MustCompile(`^FAILED (\S+)`),
		regexp.MustCompile(`^\s*[✗✕×] (.+?)(?: \(\d+.*\))?$`),
		regexp.MustCompile(`^rspec (\./\S+)`),
		regexp.MustCompile(`^\[ERROR\] (\S+)\s+Time elapsed`),
	}
)

// FallbackSummary is the deterministic summary extracted from a condensed log.
type FallbackSummary struct {
	ErrorLine    string   `json:"error_line,omitempty"`
	FailingTests []string `json:"failing_tests,omitempty"`
	ExitCode     string   `json:"exit_code,omitempty"`
	KeyLines     []string `json:"key_lines,omitempty"`
}

// Empty reports whether nothing could be extracted.
func (f FallbackSummary) Empty() bool {
	return f.ErrorLine == "" && len(f.FailingTests) == 0 && f.ExitCode == "" && len(f.KeyLines) == 0
}

// Markdown renders the summary as a bullet list.
func (f FallbackSummary) Markdown() string {
	if f.Empty() {
		return "No actionable content found in the log."
	}

	var b strings.Builder
	if f.ErrorLine != "" {
		fmt.Fprintf(&b, "- **Error:** `%s`\n", f.ErrorLine)
	}
	if len(f.FailingTests) > 0 {
		fmt.Fprintf(&b, "- **Failing tests:** %s\n", strings.Join(f.FailingTests, ", "))
	}
	if f.ExitCode != "" {
		fmt.Fprintf(&b, "- **Exit code:** %s\n", f.ExitCode)
	}
	if len(f.KeyLines) > 0 {
		b.WriteString("- **Key lines:**\n")
		for _, line := range f.KeyLines {
			fmt.Fprintf(&b, "  - `%s`\n", line)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Fallback extracts known failure signals from a condensed log without any
// external call. The result depends only on the input.
func Fallback(condensed string) FallbackSummary {
	var (
		f                      FallbackSummary
		typed, leading, generic string
	)
	seenTest := make(map[string]bool)
	seenKey := make(map[string]bool)

	for _, raw := range strings.Split(condensed, "\n") {
		line := strings.TrimSpace(ghAnnotationPattern.ReplaceAllString(strings.TrimSpace(raw), ""))
		if line == "" {
			continue
		}

		if m := exitCodePattern.FindStringSubmatch(line); m != nil && f.ExitCode == "" {
			f.ExitCode = m[1]
		}

		for _, re := range failingTestPatterns {
			if m := re.FindStringSubmatch(line); m != nil {
				name := strings.TrimSpace(m[1])
				if !seenTest[name] && len(f.FailingTests) < maxFailingTests {
					seenTest[name] = true
					f.FailingTests = append(f.FailingTests, name)
				}
				break
			}
		}

		isSignal := false
		switch {
		case genericExitPattern.MatchString(line):
			if generic == "" {
				generic = line
			}
		case typedErrorPattern.MatchString(line):
			isSignal = true
			if typed == "" {
				typed = line
			}
		case leadingErrorPattern.MatchString(line):
			isSignal = true
			if leading == "" {
				leading = line
			}
		case strings.Contains(strings.ToLower(line), "fail"):
			isSignal = true
		}

		if isSignal && len(f.KeyLines) < maxKeyLines {
			fp := patterns.Fingerprint(line)
			if !seenKey[fp] {
				seenKey[fp] = true
				f.KeyLines = append(f.KeyLines, patterns.Display(line))
			}
		}
	}

	for _, candidate := range []string{typed, leading, generic} {
		if candidate != "" {
			f.ErrorLine = patterns.Display(candidate)
			break
		}
	}
	return f
}
