package githubactions

import (
	"context"
	"strconv"

	"citriage/src/provider"
)

func init() {
	// Register the GitHub Actions provider factory
	provider.RegisterProvider("github", func(opts provider.Options) (provider.Provider, error) {
		return NewProvider(opts)
	})
}

// Provider implements provider.Provider for GitHub Actions
type Provider struct {
	client *Client
	owner  string
	repo   string
}

// NewProvider creates a GitHub Actions provider for one repository.
func NewProvider(opts provider.Options) (*Provider, error) {
	owner, repo, err := provider.SplitRepository(opts.Repository)
	if err != nil {
		return nil, err
	}

	client := NewClient(opts.Token)
	client.SetBaseURL(opts.BaseURL)

	return &Provider{
		client: client,
		owner:  owner,
		repo:   repo,
	}, nil
}

// Name returns "github"
func (p *Provider) Name() string {
	return "github"
}

// ListRuns returns the newest workflow runs for branch.
func (p *Provider) ListRuns(ctx context.Context, branch string, limit int) ([]provider.Run, error) {
	ghRuns, err := p.client.ListWorkflowRuns(ctx, p.owner, p.repo, branch, limit)
	if err != nil {
		return nil, err
	}

	runs := make([]provider.Run, 0, len(ghRuns))
	for _, r := range ghRuns {
		runs = append(runs, provider.Run{
			ID:           strconv.FormatInt(r.ID, 10),
			WorkflowName: r.Name,
			DisplayTitle: r.DisplayTitle,
			Status:       r.Status,
			Conclusion:   r.Conclusion,
			Branch:       r.HeadBranch,
			URL:          r.HTMLURL,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
			RunNumber:    r.RunNumber,
		})
	}
	return runs, nil
}

// ListJobs returns the jobs of a workflow run.
func (p *Provider) ListJobs(ctx context.Context, runID string) ([]provider.Job, error) {
	ghJobs, err := p.client.GetWorkflowJobs(ctx, p.owner, p.repo, runID)
	if err != nil {
		return nil, err
	}

	jobs := make([]provider.Job, 0, len(ghJobs))
	for _, j := range ghJobs {
		jobs = append(jobs, provider.Job{
			ID:         strconv.FormatInt(j.ID, 10),
			RunID:      runID,
			Name:       j.Name,
			Status:     j.Status,
			Conclusion: j.Conclusion,
			StartedAt:  j.StartedAt,
		})
	}
	return jobs, nil
}

// FetchJobLog retrieves raw log content for a job. GitHub addresses job logs
// by job ID alone, so runID is unused.
func (p *Provider) FetchJobLog(ctx context.Context, runID, jobID string) (string, error) {
	return p.client.GetJobLogs(ctx, p.owner, p.repo, jobID)
}
