// Package providertest provides an in-memory provider.Provider for tests.
package providertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"citriage/src/provider"
)

// Fake serves canned runs, jobs and logs. Zero-value maps are fine.
type Fake struct {
	ProviderName string

	Runs    []provider.Run
	RunsErr error

	Jobs    map[string][]provider.Job // by run ID
	JobsErr map[string]error          // by run ID

	Logs    map[string]string        // by job ID
	LogErrs map[string]error         // by job ID
	Delays  map[string]time.Duration // by job ID
	Hang    map[string]bool          // by job ID; blocks until the context ends

	mu    sync.Mutex
	calls []string
}

func (f *Fake) Name() string {
	if f.ProviderName == "" {
		return "fake"
	}
	return f.ProviderName
}

func (f *Fake) ListRuns(ctx context.Context, branch string, limit int) ([]provider.Run, error) {
	f.record("runs:" + branch)
	if f.RunsErr != nil {
		return nil, f.RunsErr
	}
	runs := f.Runs
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (f *Fake) ListJobs(ctx context.Context, runID string) ([]provider.Job, error) {
	f.record("jobs:" + runID)
	if err := f.JobsErr[runID]; err != nil {
		return nil, err
	}
	return f.Jobs[runID], nil
}

func (f *Fake) FetchJobLog(ctx context.Context, runID, jobID string) (string, error) {
	f.record("log:" + jobID)

	if f.Hang[jobID] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if d := f.Delays[jobID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := f.LogErrs[jobID]; err != nil {
		return "", err
	}
	log, ok := f.Logs[jobID]
	if !ok {
		return "", fmt.Errorf("no log for job %s", jobID)
	}
	return log, nil
}

// Calls returns the operations performed so far, e.g. "log:42".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}
