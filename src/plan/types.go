// Package plan defines the artifact handed from the dry-run phase to the
// execute phase, the stores that persist it and the Builder that creates it.
package plan

import (
	"strings"
	"time"

	"citriage/src/provider"
	"github.com/google/uuid"
)

// CurrentVersion is written into every new plan. Readers accept any
// version; unknown fields are ignored and missing ones keep zero values.
const CurrentVersion = 1

// RunSummary is the part of a provider run kept in a plan.
type RunSummary struct {
	ID           string    `json:"id"`
	WorkflowName string    `json:"workflow_name"`
	DisplayTitle string    `json:"display_title,omitempty"`
	Status       string    `json:"status"`
	Conclusion   string    `json:"conclusion,omitempty"`
	Branch       string    `json:"branch,omitempty"`
	URL          string    `json:"url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	RunNumber    int       `json:"run_number"`
}

// SummarizeRun copies the persisted fields of r.
func SummarizeRun(r provider.Run) RunSummary {
	return RunSummary{
		ID:           r.ID,
		WorkflowName: r.WorkflowName,
		DisplayTitle: r.DisplayTitle,
		Status:       r.Status,
		Conclusion:   r.Conclusion,
		Branch:       r.Branch,
		URL:          r.URL,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		RunNumber:    r.RunNumber,
	}
}

// FailedJobItem is a failed job together with its retrieved log.
// A nil RawLog means the log could not be retrieved; CondensedLog is then
// nil too and EstimatedCost is zero.
type FailedJobItem struct {
	RunID         string    `json:"run_id"`
	WorkflowName  string    `json:"workflow_name"`
	RunURL        string    `json:"run_url,omitempty"`
	RunNumber     int       `json:"run_number"`
	RunCreatedAt  time.Time `json:"run_created_at"`
	RunUpdatedAt  time.Time `json:"run_updated_at"`
	RunConclusion string    `json:"run_conclusion"`

	JobID         string    `json:"job_id"`
	JobName       string    `json:"job_name"`
	JobConclusion string    `json:"job_conclusion"`
	JobStartedAt  time.Time `json:"job_started_at"`

	RawLog         *string `json:"raw_log"`
	CondensedLog   *string `json:"condensed_log"`
	RawBytes       int     `json:"raw_bytes"`
	CondensedBytes int     `json:"condensed_bytes"`
	EstimatedCost  float64 `json:"estimated_cost"`
	FetchError     string  `json:"fetch_error,omitempty"`
}

// LogAvailable reports whether the raw log was retrieved.
func (i FailedJobItem) LogAvailable() bool {
	return i.RawLog != nil
}

// Condensed returns the condensed log, or "" when there is none.
func (i FailedJobItem) Condensed() string {
	if i.CondensedLog == nil {
		return ""
	}
	return *i.CondensedLog
}

// Plan is the persisted handoff between the plan and execute phases.
// It is never modified after it has been saved.
type Plan struct {
	Version     int       `json:"version"`
	ID          string    `json:"id"`
	Provider    string    `json:"provider,omitempty"`
	Repository  string    `json:"repository,omitempty"`
	Branch      string    `json:"branch"`
	CreatedAt   time.Time `json:"created_at"`
	ReportPath  string    `json:"report_path"`
	LogPath     string    `json:"log_path"`
	AIRequested bool      `json:"ai_requested"`

	Passed  []RunSummary `json:"passed"`
	Failed  []RunSummary `json:"failed"`
	Pending []RunSummary `json:"pending"`

	FailedJobs    []FailedJobItem `json:"failed_jobs"`
	EstimatedCost float64         `json:"estimated_cost"`
	EligibleJobs  int             `json:"eligible_jobs"`
}

// NewID returns a sortable, collision-resistant plan identifier such as
// plan-20240102T030405-1a2b3c4d.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "plan-" + now.UTC().Format("20060102T150405") + "-" + suffix
}

// Handle identifies a saved plan: a file path for the file store or an ID
// for the Postgres store.
type Handle string

func (h Handle) String() string {
	return string(h)
}

// Entry is the listing view of a stored plan.
type Entry struct {
	Handle        Handle
	ID            string
	Branch        string
	Repository    string
	CreatedAt     time.Time
	EstimatedCost float64
	EligibleJobs  int
	FailedJobs    int
}

func entryOf(h Handle, p *Plan) Entry {
	return Entry{
		Handle:        h,
		ID:            p.ID,
		Branch:        p.Branch,
		Repository:    p.Repository,
		CreatedAt:     p.CreatedAt,
		EstimatedCost: p.EstimatedCost,
		EligibleJobs:  p.EligibleJobs,
		FailedJobs:    len(p.FailedJobs),
	}
}
