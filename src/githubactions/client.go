package githubactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"citriage/src/provider"
)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com"

// maxPerPage is GitHub's page size ceiling.
const maxPerPage = 100

// Client is a GitHub Actions API client
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new GitHub Actions client. Per-call deadlines come
// from the caller's context; the client timeout is only a backstop.
func NewClient(token string) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		baseURL: DefaultBaseURL,
	}
}

// SetBaseURL points the client at another endpoint (GitHub Enterprise, tests).
func (c *Client) SetBaseURL(baseURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := c.newRequest(ctx, rawURL)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &provider.APIError{Provider: "GitHub", StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// ListWorkflowRuns fetches the newest runs for a branch, up to limit.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo, branch string, limit int) ([]WorkflowRun, error) {
	if limit <= 0 {
		return nil, nil
	}

	perPage := min(limit, maxPerPage)
	var runs []WorkflowRun

	for page := 1; len(runs) < limit; page++ {
		query := url.Values{}
		query.Set("per_page", fmt.Sprintf("%d", perPage))
		query.Set("page", fmt.Sprintf("%d", page))
		if branch != "" {
			query.Set("branch", branch)
		}
		u := fmt.Sprintf("%s/repos/%s/%s/actions/runs?%s", c.baseURL, owner, repo, query.Encode())

		var runsResp WorkflowRunsResponse
		if err := c.getJSON(ctx, u, &runsResp); err != nil {
			return nil, err
		}

		runs = append(runs, runsResp.WorkflowRuns...)

		if len(runsResp.WorkflowRuns) < perPage || len(runs) >= runsResp.TotalCount {
			break
		}
	}

	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetWorkflowJobs fetches jobs for a workflow run (handles pagination)
func (c *Client) GetWorkflowJobs(ctx context.Context, owner, repo, runID string) ([]WorkflowJob, error) {
	var allJobs []WorkflowJob

	for page := 1; ; page++ {
		u := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%s/jobs?per_page=%d&page=%d",
			c.baseURL, owner, repo, url.PathEscape(runID), maxPerPage, page)

		var jobsResp WorkflowJobsResponse
		if err := c.getJSON(ctx, u, &jobsResp); err != nil {
			return nil, err
		}

		allJobs = append(allJobs, jobsResp.Jobs...)

		// Check if we've fetched all jobs
		if len(allJobs) >= jobsResp.TotalCount || len(jobsResp.Jobs) < maxPerPage {
			break
		}
	}

	return allJobs, nil
}

// GetJobLogs fetches the plain-text log of a job. The API answers with a
// redirect to short-lived storage, which is followed without the token.
func (c *Client) GetJobLogs(ctx context.Context, owner, repo, jobID string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/actions/jobs/%s/logs", c.baseURL, owner, repo, url.PathEscape(jobID))

	req, err := c.newRequest(ctx, u)
	if err != nil {
		return "", err
	}

	// Don't follow redirects - we want the redirect URL
	client := &http.Client{
		Timeout:   c.httpClient.Timeout,
		Transport: c.httpClient.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return readLog(resp.Body)
	case http.StatusFound, http.StatusTemporaryRedirect:
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &provider.APIError{Provider: "GitHub", StatusCode: resp.StatusCode, Body: string(body)}
	}

	logURL := resp.Header.Get("Location")
	if logURL == "" {
		return "", errors.New("no redirect location for logs")
	}

	logReq, err := http.NewRequestWithContext(ctx, http.MethodGet, logURL, nil)
	if err != nil {
		return "", err
	}

	logResp, err := c.httpClient.Do(logReq)
	if err != nil {
		return "", err
	}
	defer logResp.Body.Close()

	if logResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("log download failed with status %d", logResp.StatusCode)
	}

	return readLog(logResp.Body)
}

func readLog(r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read log body: %w", err)
	}
	return string(body), nil
}
