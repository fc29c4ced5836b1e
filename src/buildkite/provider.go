package buildkite

import (
	"context"
	"strconv"
	"sync"

	"citriage/src/provider"
)

func init() {
	// Register the Buildkite provider factory
	provider.RegisterProvider("buildkite", func(opts provider.Options) (provider.Provider, error) {
		return NewProvider(opts)
	})
}

// Provider implements provider.Provider for one Buildkite pipeline.
// Builds are addressed by number, which becomes the run ID.
type Provider struct {
	client   *Client
	org      string
	pipeline string

	mu         sync.Mutex
	jobLogURLs map[string]string // job ID -> raw log URL, filled by ListJobs
}

// NewProvider creates a Buildkite provider for "org/pipeline".
func NewProvider(opts provider.Options) (*Provider, error) {
	org, pipeline, err := provider.SplitRepository(opts.Repository)
	if err != nil {
		return nil, err
	}

	client := NewClient(opts.Token)
	client.SetBaseURL(opts.BaseURL)

	return &Provider{
		client:     client,
		org:        org,
		pipeline:   pipeline,
		jobLogURLs: make(map[string]string),
	}, nil
}

// Name returns "buildkite"
func (p *Provider) Name() string {
	return "buildkite"
}

// ListRuns lists the newest builds on branch.
func (p *Provider) ListRuns(ctx context.Context, branch string, limit int) ([]provider.Run, error) {
	builds, err := p.client.ListBuilds(ctx, p.org, p.pipeline, branch, limit)
	if err != nil {
		return nil, err
	}

	runs := make([]provider.Run, 0, len(builds))
	for _, b := range builds {
		status, conclusion := mapState(b.State)
		name := b.Pipeline.Name
		if name == "" {
			name = p.pipeline
		}
		updated := b.FinishedAt
		if updated.IsZero() {
			updated = b.CreatedAt
		}

		runs = append(runs, provider.Run{
			ID:           strconv.Itoa(b.Number),
			WorkflowName: name,
			DisplayTitle: b.Message,
			Status:       status,
			Conclusion:   conclusion,
			Branch:       b.Branch,
			URL:          b.WebURL,
			CreatedAt:    b.CreatedAt,
			UpdatedAt:    updated,
			RunNumber:    b.Number,
		})
	}
	return runs, nil
}

// ListJobs returns the script jobs of a build. Wait steps, block steps and
// triggers carry no log and are skipped.
func (p *Provider) ListJobs(ctx context.Context, runID string) ([]provider.Job, error) {
	build, err := p.client.GetBuild(ctx, p.org, p.pipeline, runID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	jobs := make([]provider.Job, 0, len(build.Jobs))
	for _, bkJob := range build.Jobs {
		if bkJob.Type != "" && bkJob.Type != "script" {
			continue
		}
		if bkJob.RawLogURL != "" {
			p.jobLogURLs[bkJob.ID] = bkJob.RawLogURL
		}

		status, conclusion := mapState(bkJob.State)
		jobs = append(jobs, provider.Job{
			ID:         bkJob.ID,
			RunID:      runID,
			Name:       bkJob.Name,
			Status:     status,
			Conclusion: conclusion,
			StartedAt:  bkJob.StartedAt,
		})
	}
	return jobs, nil
}

// FetchJobLog retrieves raw log content, preferring the raw_log_url seen in ListJobs.
func (p *Provider) FetchJobLog(ctx context.Context, runID, jobID string) (string, error) {
	p.mu.Lock()
	rawLogURL, ok := p.jobLogURLs[jobID]
	p.mu.Unlock()

	if ok {
		return p.client.GetJobLogByURL(ctx, rawLogURL)
	}
	return p.client.GetJobLog(ctx, p.org, p.pipeline, runID, jobID)
}

// mapState maps a Buildkite build or job state onto the GitHub-style
// status/conclusion pair the classifier understands.
func mapState(state string) (status, conclusion string) {
	switch state {
	case "passed":
		return "completed", "success"
	case "failed":
		return "completed", "failure"
	case "timed_out", "expired":
		return "completed", "timed_out"
	case "canceled", "canceling":
		return "completed", "cancelled"
	// broken: never ran because of a step condition or a failed dependency
	case "skipped", "not_run", "broken":
		return "completed", "skipped"
	case "running", "failing", "assigned", "accepted":
		return "in_progress", ""
	case "scheduled", "creating", "pending", "waiting":
		return "queued", ""
	case "blocked", "limited", "limiting":
		return "waiting", ""
	}
	return "completed", state
}
