// Package summarize turns condensed CI logs into short failure summaries,
// either through the Anthropic Messages API or with a deterministic
// pattern-based fallback.
package summarize

import (
	"context"
	"errors"
)

// ErrNoCredential is returned when no API key is configured.
var ErrNoCredential = errors.New("no summarizer API key configured (set ANTHROPIC_API_KEY)")

// Request is one condensed job log to summarize.
type Request struct {
	WorkflowName string
	JobName      string
	CondensedLog string
}

// Summary is the result of a successful call.
type Summary struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Summarizer produces a summary for a condensed log.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (*Summary, error)
	Model() string
}
