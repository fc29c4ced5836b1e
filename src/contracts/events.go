// Package contracts defines the lifecycle events citriage publishes.
package contracts

import (
	"time"

	"citriage/src/execute"
	"citriage/src/plan"
	"github.com/google/uuid"
)

// Topic names.
const (
	// TopicPlansCreated carries PlanCreated, keyed by plan ID.
	TopicPlansCreated = "citriage.plans.created"

	// TopicReportsCompleted carries ReportCompleted, keyed by plan ID.
	TopicReportsCompleted = "citriage.reports.completed"
)

// PlanCreated is published after a plan has been persisted.
type PlanCreated struct {
	EventID       string    `json:"event_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	PlanID        string    `json:"plan_id"`
	Handle        string    `json:"handle"`
	Provider      string    `json:"provider"`
	Repository    string    `json:"repository"`
	Branch        string    `json:"branch"`
	PassedRuns    int       `json:"passed_runs"`
	FailedRuns    int       `json:"failed_runs"`
	PendingRuns   int       `json:"pending_runs"`
	FailedJobs    int       `json:"failed_jobs"`
	EligibleJobs  int       `json:"eligible_jobs"`
	EstimatedCost float64   `json:"estimated_cost"`
	AIRequested   bool      `json:"ai_requested"`
}

// ReportCompleted is published after execute has written a report.
type ReportCompleted struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	PlanID     string    `json:"plan_id"`
	Handle     string    `json:"handle"`
	Branch     string    `json:"branch"`
	ReportPath string    `json:"report_path"`
	LogPath    string    `json:"log_path"`
	GatePath   string    `json:"gate_path"`
	Proceeded  bool      `json:"proceeded"`
	AICalls    int       `json:"ai_calls"`
	AIFailures int       `json:"ai_failures"`
	ActualCost float64   `json:"actual_cost"`
}

// NewPlanCreated builds the event for a saved plan.
func NewPlanCreated(p *plan.Plan, h plan.Handle, now time.Time) PlanCreated {
	return PlanCreated{
		EventID:       uuid.NewString(),
		OccurredAt:    now.UTC(),
		PlanID:        p.ID,
		Handle:        h.String(),
		Provider:      p.Provider,
		Repository:    p.Repository,
		Branch:        p.Branch,
		PassedRuns:    len(p.Passed),
		FailedRuns:    len(p.Failed),
		PendingRuns:   len(p.Pending),
		FailedJobs:    len(p.FailedJobs),
		EligibleJobs:  p.EligibleJobs,
		EstimatedCost: p.EstimatedCost,
		AIRequested:   p.AIRequested,
	}
}

// NewReportCompleted builds the event for a finished execute run.
func NewReportCompleted(r *execute.Result, now time.Time) ReportCompleted {
	ev := ReportCompleted{
		EventID:    uuid.NewString(),
		OccurredAt: now.UTC(),
		Handle:     r.Handle.String(),
		ReportPath: r.ReportPath,
		LogPath:    r.LogPath,
		GatePath:   string(r.Decision.Path),
		Proceeded:  r.Decision.Proceed,
		AICalls:    r.AICalls,
		AIFailures: r.AIFailures,
		ActualCost: r.ActualCost,
	}
	if r.Plan != nil {
		ev.PlanID = r.Plan.ID
		ev.Branch = r.Plan.Branch
	}
	return ev
}
