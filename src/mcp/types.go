// Package mcp serves citriage plans to LLM clients over the Model Context
// Protocol.
package mcp

import (
	"time"

	"citriage/src/plan"
)

// Manifest is the lightweight view of a plan returned by triage_branch.
// Logs are left out; clients drill in with get_job_log.
type Manifest struct {
	PlanID        string        `json:"plan_id"`
	Handle        string        `json:"handle"`
	Repository    string        `json:"repository,omitempty"`
	Branch        string        `json:"branch"`
	CreatedAt     time.Time     `json:"created_at"`
	PassedRuns    int           `json:"passed_runs"`
	FailedRuns    int           `json:"failed_runs"`
	PendingRuns   int           `json:"pending_runs"`
	FailedJobs    []JobManifest `json:"failed_jobs"`
	EligibleJobs  int           `json:"eligible_jobs"`
	EstimatedCost float64       `json:"estimated_cost"`
}

// JobManifest describes one failed job without its log.
type JobManifest struct {
	JobID          string  `json:"job_id"`
	JobName        string  `json:"job_name"`
	WorkflowName   string  `json:"workflow_name"`
	RunID          string  `json:"run_id"`
	RunURL         string  `json:"run_url,omitempty"`
	LogAvailable   bool    `json:"log_available"`
	RawBytes       int     `json:"raw_bytes"`
	CondensedBytes int     `json:"condensed_bytes"`
	EstimatedCost  float64 `json:"estimated_cost"`
	FetchError     string  `json:"fetch_error,omitempty"`
}

// ToManifest summarizes p for a client.
func ToManifest(p *plan.Plan, h plan.Handle) Manifest {
	m := Manifest{
		PlanID:        p.ID,
		Handle:        h.String(),
		Repository:    p.Repository,
		Branch:        p.Branch,
		CreatedAt:     p.CreatedAt,
		PassedRuns:    len(p.Passed),
		FailedRuns:    len(p.Failed),
		PendingRuns:   len(p.Pending),
		FailedJobs:    make([]JobManifest, 0, len(p.FailedJobs)),
		EligibleJobs:  p.EligibleJobs,
		EstimatedCost: p.EstimatedCost,
	}
	for _, item := range p.FailedJobs {
		m.FailedJobs = append(m.FailedJobs, JobManifest{
			JobID:          item.JobID,
			JobName:        item.JobName,
			WorkflowName:   item.WorkflowName,
			RunID:          item.RunID,
			RunURL:         item.RunURL,
			LogAvailable:   item.LogAvailable(),
			RawBytes:       item.RawBytes,
			CondensedBytes: item.CondensedBytes,
			EstimatedCost:  item.EstimatedCost,
			FetchError:     item.FetchError,
		})
	}
	return m
}

// JobLog is the get_job_log response.
type JobLog struct {
	PlanID       string `json:"plan_id"`
	JobID        string `json:"job_id"`
	JobName      string `json:"job_name"`
	WorkflowName string `json:"workflow_name"`
	LogAvailable bool   `json:"log_available"`
	FetchError   string `json:"fetch_error,omitempty"`
	Lines        int    `json:"lines"`
	Truncated    bool   `json:"truncated"`
	Log          string `json:"log"`
}
