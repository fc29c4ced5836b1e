// Package classify partitions CI runs into passed, failed and pending buckets.
package classify

import (
	"strings"

	"citriage/src/provider"
)

// Class is the triage bucket of a run.
type Class string

const (
	Passed  Class = "passed"
	Failed  Class = "failed"
	Pending Class = "pending"
)

var failedConclusions = map[string]bool{
	"failure":         true,
	"cancelled":       true,
	"timed_out":       true,
	"startup_failure": true,
}

var pendingStatuses = map[string]bool{
	"in_progress": true,
	"queued":      true,
	"waiting":     true,
	"requested":   true,
	"pending":     true,
}

// Terminal conclusions this package recognises. Anything else that is
// non-empty is treated as passed.
var knownConclusions = map[string]bool{
	"success":         true,
	"failure":         true,
	"cancelled":       true,
	"timed_out":       true,
	"startup_failure": true,
	"skipped":         true,
	"neutral":         true,
	"action_required": true,
	"stale":           true,
}

// Buckets holds runs grouped by class, each in input order.
type Buckets struct {
	Passed  []provider.Run
	Failed  []provider.Run
	Pending []provider.Run
}

// Len returns the total number of runs across all buckets.
func (b Buckets) Len() int {
	return len(b.Passed) + len(b.Failed) + len(b.Pending)
}

// Of returns the class of a single run. First match wins:
// failed conclusion, then pending status or empty conclusion, then passed.
func Of(run provider.Run) Class {
	conclusion := normalize(run.Conclusion)
	if failedConclusions[conclusion] {
		return Failed
	}
	if pendingStatuses[normalize(run.Status)] || conclusion == "" {
		return Pending
	}
	return Passed
}

// Classify partitions runs. Every run lands in exactly one bucket.
func Classify(runs []provider.Run) Buckets {
	var b Buckets
	for _, run := range runs {
		switch Of(run) {
		case Failed:
			b.Failed = append(b.Failed, run)
		case Pending:
			b.Pending = append(b.Pending, run)
		default:
			b.Passed = append(b.Passed, run)
		}
	}
	return b
}

// IsFailedConclusion reports whether a run or job conclusion counts as a failure.
func IsFailedConclusion(conclusion string) bool {
	return failedConclusions[normalize(conclusion)]
}

// IsKnownConclusion reports whether conclusion is one of the recognised
// terminal states. Empty is considered known (still running).
func IsKnownConclusion(conclusion string) bool {
	c := normalize(conclusion)
	return c == "" || knownConclusions[c]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
