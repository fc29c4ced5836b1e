package provider

import "time"

// Run represents one CI workflow execution.
type Run struct {
	ID           string
	WorkflowName string
	DisplayTitle string
	Status       string // raw provider status, e.g. "completed", "in_progress"
	Conclusion   string // raw provider conclusion, empty while running
	Branch       string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RunNumber    int
}

// Job represents a single job within a run
type Job struct {
	ID         string
	RunID      string
	Name       string
	Status     string
	Conclusion string
	StartedAt  time.Time
}

// Options configures a provider instance.
type Options struct {
	Token string
	// Repository is "owner/repo" for GitHub or "org/pipeline" for Buildkite.
	Repository string
	// BaseURL overrides the provider API endpoint (tests, GitHub Enterprise).
	BaseURL string
}
