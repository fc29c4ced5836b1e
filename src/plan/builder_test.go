package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"citriage/src/condense"
	"citriage/src/cost"
	"citriage/src/logger"
	"citriage/src/provider"
	"citriage/src/provider/providertest"
)

var failingLog = strings.Repeat("building step\n", 5) +
	"Traceback (most recent call last):\n" +
	"  File \"app.py\", line 3, in <module>\n" +
	"ImportError: cannot import name 'thing' from 'lib'\n" +
	"##[error]Process completed with exit code 1.\n"

func newTestBuilder(t *testing.T, p provider.Provider, log logger.Logger, opts ...Option) (*Builder, *FileStore) {
	t.Helper()
	c, err := condense.New(condense.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(t.TempDir())
	return NewBuilder(p, c, cost.New(cost.DefaultPricing()), store, log, opts...), store
}

func TestBuild_FailedRunWithJobs(t *testing.T) {
	fake := &providertest.Fake{
		Runs: []provider.Run{
			{ID: "1", WorkflowName: "CI", Status: "completed", Conclusion: "success"},
			{ID: "2", WorkflowName: "CI", Status: "completed", Conclusion: "failure", RunNumber: 42},
			{ID: "3", WorkflowName: "Deploy", Status: "in_progress"},
		},
		Jobs: map[string][]provider.Job{
			"2": {
				{ID: "20", Name: "lint", Conclusion: "success"},
				{ID: "21", Name: "unit", Conclusion: "failure"},
				{ID: "22", Name: "e2e", Conclusion: "failure"},
			},
		},
		Logs: map[string]string{"21": failingLog, "22": failingLog},
	}

	b, store := newTestBuilder(t, fake, logger.NewSilentLogger())

	p, h, err := b.Build(context.Background(), Request{Branch: "main", Limit: 10, AIRequested: true, ReportPath: "r.md", LogPath: "l.log"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(p.Passed) != 1 || len(p.Failed) != 1 || len(p.Pending) != 1 {
		t.Errorf("buckets = %d/%d/%d, want 1/1/1", len(p.Passed), len(p.Failed), len(p.Pending))
	}
	if len(p.FailedJobs) != 2 {
		t.Fatalf("FailedJobs = %d, want 2", len(p.FailedJobs))
	}
	if p.FailedJobs[0].JobName != "unit" || p.FailedJobs[1].JobName != "e2e" {
		t.Errorf("job order = %s, %s; want unit, e2e", p.FailedJobs[0].JobName, p.FailedJobs[1].JobName)
	}

	item := p.FailedJobs[0]
	if !item.LogAvailable() || item.RawBytes != len(failingLog) {
		t.Errorf("RawBytes = %d, want %d", item.RawBytes, len(failingLog))
	}
	if item.CondensedBytes == 0 || item.CondensedBytes >= item.RawBytes {
		t.Errorf("CondensedBytes = %d, want between 0 and %d", item.CondensedBytes, item.RawBytes)
	}
	if !strings.Contains(item.Condensed(), "ImportError") {
		t.Errorf("condensed log lost the error: %q", item.Condensed())
	}
	if item.RunNumber != 42 || item.WorkflowName != "CI" {
		t.Errorf("run fields not copied: %+v", item)
	}

	if p.EligibleJobs != 2 {
		t.Errorf("EligibleJobs = %d, want 2", p.EligibleJobs)
	}
	want := cost.Round(p.FailedJobs[0].EstimatedCost + p.FailedJobs[1].EstimatedCost)
	if p.EstimatedCost != want || p.EstimatedCost <= 0 {
		t.Errorf("EstimatedCost = %v, want %v", p.EstimatedCost, want)
	}
	if !p.AIRequested || p.ReportPath != "r.md" || p.LogPath != "l.log" || p.Branch != "main" {
		t.Errorf("request fields not copied: %+v", p)
	}

	loaded, err := store.Load(context.Background(), h)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.EstimatedCost != p.EstimatedCost || loaded.Branch != p.Branch {
		t.Errorf("round trip mismatch: %v/%s vs %v/%s", loaded.EstimatedCost, loaded.Branch, p.EstimatedCost, p.Branch)
	}
	for i := range p.FailedJobs {
		if loaded.FailedJobs[i].JobID != p.FailedJobs[i].JobID {
			t.Errorf("FailedJobs[%d] = %s, want %s", i, loaded.FailedJobs[i].JobID, p.FailedJobs[i].JobID)
		}
	}
}

func TestBuild_RunListFailureIsFatal(t *testing.T) {
	fake := &providertest.Fake{RunsErr: &provider.APIError{Provider: "fake", StatusCode: 401, Body: "bad token"}}
	b, store := newTestBuilder(t, fake, logger.NewSilentLogger())

	_, _, err := b.Build(context.Background(), Request{Branch: "main", Limit: 5})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, provider.ErrAuthFailed) {
		t.Errorf("error = %v, want ErrAuthFailed in chain", err)
	}
	var userErr *provider.UserError
	if !errors.As(err, &userErr) {
		t.Errorf("error = %T, want *provider.UserError", err)
	}

	entries, _ := store.List(context.Background())
	if len(entries) != 0 {
		t.Errorf("no plan should be written, found %d", len(entries))
	}
}

func TestBuild_LogTimeoutIsRecorded(t *testing.T) {
	fake := &providertest.Fake{
		Runs: []provider.Run{{ID: "1", WorkflowName: "CI", Status: "completed", Conclusion: "failure"}},
		Jobs: map[string][]provider.Job{"1": {{ID: "10", Name: "test", Conclusion: "failure"}}},
		Hang: map[string]bool{"10": true},
	}
	rec := logger.NewRecorder()
	b, _ := newTestBuilder(t, fake, rec, WithTimeouts(Timeouts{Log: 20 * time.Millisecond}))

	p, _, err := b.Build(context.Background(), Request{Branch: "main", Limit: 5})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(p.FailedJobs) != 1 {
		t.Fatalf("FailedJobs = %d, want 1", len(p.FailedJobs))
	}
	item := p.FailedJobs[0]
	if item.RawLog != nil || item.CondensedLog != nil || item.EstimatedCost != 0 {
		t.Errorf("timed out job should have nil logs and zero cost: %+v", item)
	}
	if !strings.Contains(item.FetchError, "deadline") {
		t.Errorf("FetchError = %q, want deadline message", item.FetchError)
	}
	if p.EstimatedCost != 0 || p.EligibleJobs != 0 {
		t.Errorf("plan totals = %v/%d, want 0/0", p.EstimatedCost, p.EligibleJobs)
	}
	if !rec.Contains("log unavailable") {
		t.Errorf("expected warning in log, got %v", rec.Lines())
	}
}

func TestBuild_JobListFailureKeepsRunVisible(t *testing.T) {
	fake := &providertest.Fake{
		Runs: []provider.Run{
			{ID: "1", WorkflowName: "CI", Status: "completed", Conclusion: "failure"},
			{ID: "2", WorkflowName: "Lint", Status: "completed", Conclusion: "timed_out"},
		},
		JobsErr: map[string]error{"1": errors.New("502 bad gateway")},
		Jobs:    map[string][]provider.Job{"2": {{ID: "20", Name: "lint", Conclusion: "timed_out"}}},
		Logs:    map[string]string{"20": failingLog},
	}
	b, _ := newTestBuilder(t, fake, logger.NewSilentLogger())

	p, _, err := b.Build(context.Background(), Request{Branch: "main", Limit: 5})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(p.FailedJobs) != 2 {
		t.Fatalf("FailedJobs = %d, want 2", len(p.FailedJobs))
	}

	placeholder := p.FailedJobs[0]
	if placeholder.JobName != JobListUnavailable || placeholder.RawLog != nil {
		t.Errorf("placeholder = %+v", placeholder)
	}
	if !strings.Contains(placeholder.FetchError, "502") {
		t.Errorf("FetchError = %q", placeholder.FetchError)
	}
	if !p.FailedJobs[1].LogAvailable() {
		t.Error("second run's job should still have its log")
	}

	for _, call := range fake.Calls() {
		if call == "log:" {
			t.Error("placeholder item should not trigger a log fetch")
		}
	}
}

func TestBuild_ConcurrentFetchKeepsOrder(t *testing.T) {
	jobs := make([]provider.Job, 6)
	logs := make(map[string]string)
	delays := make(map[string]time.Duration)
	errs := make(map[string]error)
	for i := range jobs {
		id := fmt.Sprintf("j%d", i)
		jobs[i] = provider.Job{ID: id, Name: "job-" + id, Conclusion: "failure"}
		logs[id] = failingLog + "marker " + id + " failed\n"
		// Earlier jobs finish last.
		delays[id] = time.Duration(len(jobs)-i) * 5 * time.Millisecond
	}
	errs["j3"] = errors.New("decode error")

	fake := &providertest.Fake{
		Runs:    []provider.Run{{ID: "1", WorkflowName: "CI", Status: "completed", Conclusion: "failure"}},
		Jobs:    map[string][]provider.Job{"1": jobs},
		Logs:    logs,
		Delays:  delays,
		LogErrs: errs,
	}
	b, _ := newTestBuilder(t, fake, logger.NewSilentLogger(), WithConcurrency(4))

	p, _, err := b.Build(context.Background(), Request{Branch: "main", Limit: 5})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for i, item := range p.FailedJobs {
		want := fmt.Sprintf("j%d", i)
		if item.JobID != want {
			t.Errorf("FailedJobs[%d] = %s, want %s", i, item.JobID, want)
		}
		if want == "j3" {
			if item.LogAvailable() {
				t.Error("j3 should have failed")
			}
			continue
		}
		if !strings.Contains(item.Condensed(), "marker "+want) {
			t.Errorf("job %s got the wrong log: %q", want, item.Condensed())
		}
	}
	if p.EligibleJobs != 5 {
		t.Errorf("EligibleJobs = %d, want 5", p.EligibleJobs)
	}
}

func TestBuild_UnknownConclusionWarns(t *testing.T) {
	fake := &providertest.Fake{
		Runs: []provider.Run{{ID: "9", WorkflowName: "CI", Status: "completed", Conclusion: "exploded"}},
	}
	rec := logger.NewRecorder()
	b, _ := newTestBuilder(t, fake, rec)

	p, _, err := b.Build(context.Background(), Request{Branch: "main", Limit: 5})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(p.Passed) != 1 {
		t.Errorf("Passed = %d, want 1", len(p.Passed))
	}
	if !rec.Contains(`unrecognized conclusion "exploded"`) {
		t.Errorf("expected warning, got %v", rec.Lines())
	}
}

func TestBuild_ShortLogIsNotEligible(t *testing.T) {
	fake := &providertest.Fake{
		Runs: []provider.Run{{ID: "1", Status: "completed", Conclusion: "failure"}},
		Jobs: map[string][]provider.Job{"1": {{ID: "10", Name: "t", Conclusion: "failure"}}},
		Logs: map[string]string{"10": "error: x"},
	}
	b, _ := newTestBuilder(t, fake, logger.NewSilentLogger())

	p, _, err := b.Build(context.Background(), Request{Branch: "main", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !p.FailedJobs[0].LogAvailable() {
		t.Fatal("log should be available")
	}
	if p.EligibleJobs != 0 || p.EstimatedCost != 0 {
		t.Errorf("short log counted: eligible=%d cost=%v", p.EligibleJobs, p.EstimatedCost)
	}
}
