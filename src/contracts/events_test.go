package contracts

import (
	"testing"
	"time"

	"citriage/src/execute"
	"citriage/src/gate"
	"citriage/src/plan"
)

func TestNewPlanCreated(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	p := &plan.Plan{
		ID:            "plan-1",
		Provider:      "github",
		Repository:    "acme/widgets",
		Branch:        "main",
		Passed:        []plan.RunSummary{{ID: "1"}, {ID: "2"}},
		Failed:        []plan.RunSummary{{ID: "3"}},
		FailedJobs:    []plan.FailedJobItem{{JobID: "a"}, {JobID: "b"}},
		EligibleJobs:  1,
		EstimatedCost: 0.0123,
		AIRequested:   true,
	}

	ev := NewPlanCreated(p, plan.Handle("/tmp/plan-1.json"), now)

	if ev.EventID == "" {
		t.Error("EventID is empty")
	}
	if !ev.OccurredAt.Equal(now) || ev.OccurredAt.Location() != time.UTC {
		t.Errorf("OccurredAt = %v, want %v in UTC", ev.OccurredAt, now)
	}
	if ev.PlanID != "plan-1" || ev.Handle != "/tmp/plan-1.json" {
		t.Errorf("identity = %q/%q", ev.PlanID, ev.Handle)
	}
	if ev.PassedRuns != 2 || ev.FailedRuns != 1 || ev.PendingRuns != 0 {
		t.Errorf("run counts = %d/%d/%d", ev.PassedRuns, ev.FailedRuns, ev.PendingRuns)
	}
	if ev.FailedJobs != 2 || ev.EligibleJobs != 1 {
		t.Errorf("job counts = %d/%d", ev.FailedJobs, ev.EligibleJobs)
	}

	other := NewPlanCreated(p, "", now)
	if other.EventID == ev.EventID {
		t.Error("event IDs should be unique")
	}
}

func TestNewReportCompleted(t *testing.T) {
	r := &execute.Result{
		Plan:       &plan.Plan{ID: "plan-2", Branch: "feature"},
		Handle:     "plan-2",
		Decision:   gate.Decision{Proceed: true, Path: gate.PathAutoConfirm},
		ActualCost: 0.006,
		AICalls:    1,
		ReportPath: "citriage-report.md",
	}

	ev := NewReportCompleted(r, time.Now())

	if ev.PlanID != "plan-2" || ev.Branch != "feature" {
		t.Errorf("plan fields = %q/%q", ev.PlanID, ev.Branch)
	}
	if ev.GatePath != string(gate.PathAutoConfirm) || !ev.Proceeded {
		t.Errorf("gate = %q proceed=%t", ev.GatePath, ev.Proceeded)
	}
	if ev.AICalls != 1 || ev.ActualCost != 0.006 {
		t.Errorf("ai = %d calls, $%v", ev.AICalls, ev.ActualCost)
	}

	if ev := NewReportCompleted(&execute.Result{}, time.Now()); ev.PlanID != "" {
		t.Errorf("PlanID without plan = %q", ev.PlanID)
	}
}
