package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultBaseURL is the Anthropic API host.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is the model used for log summaries.
	DefaultModel = "claude-sonnet-4-5"

	// DefaultMaxTokens caps the summary length.
	DefaultMaxTokens = 600

	// DefaultMaxRetries is how often the SDK retries rate limits and 5xx responses.
	DefaultMaxRetries = 2
)

const systemPrompt = `You are a CI failure triage assistant. You receive a condensed log from one failed CI job.
Explain the most likely root cause in plain language, quote the decisive error line, and suggest the next step to fix it.
Be concise: at most 8 short bullet points in markdown. Do not invent details that are not in the log.`

// AnthropicClient implements Summarizer using the Anthropic Messages API.
type AnthropicClient struct {
	client     anthropic.Client
	baseURL    string
	model      string
	maxTokens  int
	maxRetries int
	timeout    time.Duration
}

// ClientOption configures an AnthropicClient.
type ClientOption func(*AnthropicClient)

// WithModel sets the model to use for summarization.
func WithModel(model string) ClientOption {
	return func(c *AnthropicClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different host (tests, proxies).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *AnthropicClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithMaxTokens sets the response token cap.
func WithMaxTokens(n int) ClientOption {
	return func(c *AnthropicClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTimeout bounds each request attempt.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *AnthropicClient) {
		c.timeout = timeout
	}
}

// WithMaxRetries sets how often a failed request is retried. Zero disables retries.
func WithMaxRetries(n int) ClientOption {
	return func(c *AnthropicClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewAnthropicClient creates a client. It returns ErrNoCredential when
// apiKey is empty.
func NewAnthropicClient(apiKey string, opts ...ClientOption) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoCredential
	}

	c := &AnthropicClient{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL),
		option.WithMaxRetries(c.maxRetries),
	}
	if c.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(c.timeout))
	}
	c.client = anthropic.NewClient(reqOpts...)
	return c, nil
}

// Model returns the model name sent with every request.
func (c *AnthropicClient) Model() string {
	return c.model
}

// Summarize sends one condensed log and returns the model's summary with
// its token usage.
func (c *AnthropicClient) Summarize(ctx context.Context, req Request) (*Summary, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("API error (status %d): %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("send request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	summary := strings.TrimSpace(text.String())
	if summary == "" {
		return nil, errors.New("empty response from API")
	}

	model := string(msg.Model)
	if model == "" {
		model = c.model
	}
	return &Summary{
		Text:         summary,
		Model:        model,
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workflow: %s\nJob: %s\n\nCondensed log:\n```\n", req.WorkflowName, req.JobName)
	b.WriteString(req.CondensedLog)
	b.WriteString("\n```\n")
	return b.String()
}
