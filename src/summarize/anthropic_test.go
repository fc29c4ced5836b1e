package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewAnthropicClient_NoAPIKey(t *testing.T) {
	_, err := NewAnthropicClient("  ")
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("error = %v, want ErrNoCredential", err)
	}
}

func TestNewAnthropicClient_WithOptions(t *testing.T) {
	client, err := NewAnthropicClient("test-key",
		WithModel("custom-model"),
		WithMaxTokens(100),
		WithBaseURL("http://example.test/"),
		WithTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() != "custom-model" {
		t.Errorf("expected model custom-model, got %s", client.Model())
	}
	if client.maxTokens != 100 {
		t.Errorf("expected maxTokens 100, got %d", client.maxTokens)
	}
	if client.baseURL != "http://example.test" {
		t.Errorf("expected trimmed base URL, got %s", client.baseURL)
	}
	if client.timeout != 5*time.Second || client.maxRetries != DefaultMaxRetries {
		t.Errorf("timeout/maxRetries = %v/%d", client.timeout, client.maxRetries)
	}
}

// wireRequest is the subset of a Messages API request body the tests inspect.
type wireRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

const successBody = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [
    {"type": "text", "text": "- Missing module ` + "`lib`" + `.\n"},
    {"type": "text", "text": "- Add it to requirements."}
  ],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 321, "output_tokens": 45}
}`

func TestAnthropicClient_Summarize_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing or invalid API key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version header")
		}

		var req wireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Model != DefaultModel || req.MaxTokens != DefaultMaxTokens {
			t.Errorf("model/max_tokens = %q/%d", req.Model, req.MaxTokens)
		}
		if len(req.System) != 1 || !strings.Contains(req.System[0].Text, "CI failure triage") {
			t.Errorf("system prompt not sent: %+v", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || len(req.Messages[0].Content) != 1 {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		prompt := req.Messages[0].Content[0].Text
		if !strings.Contains(prompt, "ImportError: boom") || !strings.Contains(prompt, "Job: unit") {
			t.Errorf("log not sent in prompt: %q", prompt)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(successBody))
	}))
	defer server.Close()

	client, err := NewAnthropicClient("test-key", WithBaseURL(server.URL), WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}

	got, err := client.Summarize(context.Background(), Request{WorkflowName: "CI", JobName: "unit", CondensedLog: "ImportError: boom"})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.Text != "- Missing module `lib`.\n- Add it to requirements." {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Model != "claude-test" || got.InputTokens != 321 || got.OutputTokens != 45 {
		t.Errorf("unexpected summary metadata: %+v", got)
	}
}

func TestAnthropicClient_Summarize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`,
			wantErr: "status 429",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"type":"error","error":{"type":"api_error","message":"upstream exploded"}}`,
			wantErr: "status 500",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`,
			wantErr: "status 401",
		},
		{
			name:   "invalid json",
			status: http.StatusOK,
			body:   "{",
		},
		{
			name:    "empty content",
			status:  http.StatusOK,
			body:    `{"id":"msg_02","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`,
			wantErr: "empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewAnthropicClient("k", WithBaseURL(server.URL), WithMaxRetries(0))
			_, err := client.Summarize(context.Background(), Request{CondensedLog: "x"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAnthropicClient_Summarize_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.Header().Set("retry-after-ms", "10")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
			return
		}
		w.Write([]byte(successBody))
	}))
	defer server.Close()

	client, _ := NewAnthropicClient("k", WithBaseURL(server.URL), WithMaxRetries(1))
	got, err := client.Summarize(context.Background(), Request{CondensedLog: "x"})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if calls.Load() != 2 || got.InputTokens != 321 {
		t.Errorf("calls = %d, input tokens = %d; want 2 calls and the retried usage", calls.Load(), got.InputTokens)
	}
}

func TestAnthropicClient_Summarize_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, _ := NewAnthropicClient("k", WithBaseURL(server.URL), WithMaxRetries(0))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Summarize(ctx, Request{CondensedLog: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}
