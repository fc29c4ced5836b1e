// Package condense reduces raw CI logs to the lines that explain a failure.
//
// The output is always a filtered subsequence of the cleaned input: lines
// are stripped of escape codes and timestamps but never reordered or
// rewritten beyond that.
package condense

import (
	"fmt"
	"regexp"
	"strings"

	"citriage/src/patterns"
	"citriage/src/sanitize"
)

// Condenser applies a Config to log text. It is safe for concurrent use.
type Condenser struct {
	cfg    Config
	tokens []string
	noise  []*regexp.Regexp
}

// New compiles cfg. It fails only on an invalid noise pattern.
func New(cfg Config) (*Condenser, error) {
	c := &Condenser{cfg: cfg}
	for _, tok := range cfg.SignalTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			c.tokens = append(c.tokens, tok)
		}
	}
	for _, p := range cfg.NoisePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid noise pattern %q: %w", p, err)
		}
		c.noise = append(c.noise, re)
	}
	return c, nil
}

// Condense returns the failure-relevant part of raw, or "" when nothing
// actionable remains.
func (c *Condenser) Condense(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	lines := c.candidates(sanitize.Clean(raw))
	if len(lines) == 0 {
		return ""
	}

	keep := make([]bool, len(lines))
	signals := 0
	for i, line := range lines {
		if !c.isSignal(line) {
			continue
		}
		signals++
		lo := max(0, i-c.cfg.ContextBefore)
		hi := min(len(lines)-1, i+c.cfg.ContextAfter)
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}

	var out []string
	if signals == 0 {
		if c.cfg.TailLines <= 0 {
			return ""
		}
		out = lines[max(0, len(lines)-c.cfg.TailLines):]
	} else {
		out = make([]string, 0, len(lines))
		for i, line := range lines {
			if keep[i] {
				out = append(out, line)
			}
		}
	}

	if c.cfg.MaxLines > 0 && len(out) > c.cfg.MaxLines {
		out = out[len(out)-c.cfg.MaxLines:]
	}
	return strings.Join(out, "\n")
}

// candidates strips timestamps, drops noise and collapses runs of lines
// that differ only in volatile details.
func (c *Condenser) candidates(cleaned string) []string {
	var (
		out    []string
		lastFP string
	)
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimRight(sanitize.StripTimestamp(line), " \t")
		if !c.isSignal(line) && c.isNoise(line) {
			continue
		}
		fp := patterns.Fingerprint(line)
		if len(out) > 0 && fp == lastFP {
			continue
		}
		out = append(out, line)
		lastFP = fp
	}
	return out
}

func (c *Condenser) isSignal(line string) bool {
	lower := strings.ToLower(line)
	for _, tok := range c.tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func (c *Condenser) isNoise(line string) bool {
	for _, re := range c.noise {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
