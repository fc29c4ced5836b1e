// Package buildkite provides a client for interacting with the Buildkite API.
package buildkite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"citriage/src/provider"
)

const (
	// APIBaseURL is the base URL for the Buildkite API.
	APIBaseURL = "https://api.buildkite.com/v2"
)

// Client is a Buildkite API client.
type Client struct {
	apiToken   string
	httpClient *http.Client
	baseURL    string
}

// Build represents a Buildkite build.
type Build struct {
	ID         string    `json:"id"`
	Number     int       `json:"number"`
	State      string    `json:"state"`
	Message    string    `json:"message"`
	Branch     string    `json:"branch"`
	WebURL     string    `json:"web_url"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at"`
	Pipeline   Pipeline  `json:"pipeline"`
	Jobs       []Job     `json:"jobs"`
}

// Pipeline is the subset of pipeline metadata embedded in a build.
type Pipeline struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Job represents a Buildkite job within a build.
type Job struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	State      string    `json:"state"`
	ExitStatus *int      `json:"exit_status"`
	StartedAt  time.Time `json:"started_at"`
	RawLogURL  string    `json:"raw_log_url"`
}

// NewClient creates a new Buildkite API client.
func NewClient(apiToken string) *Client {
	return &Client{
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		baseURL: APIBaseURL,
	}
}

// SetBaseURL overrides the API endpoint.
func (c *Client) SetBaseURL(baseURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
}

func (c *Client) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiToken))
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &provider.APIError{Provider: "Buildkite", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

// ListBuilds fetches the newest builds of a pipeline on a branch.
func (c *Client) ListBuilds(ctx context.Context, org, pipeline, branch string, limit int) ([]Build, error) {
	query := url.Values{}
	query.Set("per_page", fmt.Sprintf("%d", min(max(limit, 1), 100)))
	if branch != "" {
		query.Set("branch", branch)
	}
	u := fmt.Sprintf("%s/organizations/%s/pipelines/%s/builds?%s", c.baseURL, org, pipeline, query.Encode())

	resp, err := c.get(ctx, u, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var builds []Build
	if err := json.NewDecoder(resp.Body).Decode(&builds); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if limit > 0 && len(builds) > limit {
		builds = builds[:limit]
	}
	return builds, nil
}

// GetBuild fetches a build's metadata from the Buildkite API.
func (c *Client) GetBuild(ctx context.Context, org, pipeline, buildNumber string) (*Build, error) {
	u := fmt.Sprintf("%s/organizations/%s/pipelines/%s/builds/%s", c.baseURL, org, pipeline, url.PathEscape(buildNumber))

	resp, err := c.get(ctx, u, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var build Build
	if err := json.NewDecoder(resp.Body).Decode(&build); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &build, nil
}

// GetJobLog fetches the plain-text log of a job within a build.
func (c *Client) GetJobLog(ctx context.Context, org, pipeline, buildNumber, jobID string) (string, error) {
	u := fmt.Sprintf("%s/organizations/%s/pipelines/%s/builds/%s/jobs/%s/log.txt",
		c.baseURL, org, pipeline, url.PathEscape(buildNumber), url.PathEscape(jobID))
	return c.GetJobLogByURL(ctx, u)
}

// GetJobLogByURL fetches the raw log content using the provided raw_log_url.
func (c *Client) GetJobLogByURL(ctx context.Context, rawLogURL string) (string, error) {
	resp, err := c.get(ctx, rawLogURL, "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	logBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read log content: %w", err)
	}

	return string(logBytes), nil
}
