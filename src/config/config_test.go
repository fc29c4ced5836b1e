package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate clears the environment variables config reads so the host
// environment cannot leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GITHUB_TOKEN", "GH_TOKEN", "BUILDKITE_API_TOKEN", "ANTHROPIC_API_KEY",
		"CITRIAGE_LIMIT", "CITRIAGE_PROVIDER_NAME", "CITRIAGE_PATHS_PLAN_DIR",
		"CITRIAGE_PROVIDER_GITHUB_TOKEN", "CITRIAGE_SUMMARIZER_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	v, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if cfg.Provider.Name != want.Provider.Name {
		t.Errorf("Provider.Name = %q, want %q", cfg.Provider.Name, want.Provider.Name)
	}
	if cfg.Limit != 20 {
		t.Errorf("Limit = %d, want 20", cfg.Limit)
	}
	if cfg.Provider.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Provider.Concurrency)
	}
	if cfg.Pricing != want.Pricing {
		t.Errorf("Pricing = %+v, want %+v", cfg.Pricing, want.Pricing)
	}
	if len(cfg.Condense.SignalTokens) != len(want.Condense.SignalTokens) {
		t.Errorf("SignalTokens len = %d, want %d", len(cfg.Condense.SignalTokens), len(want.Condense.SignalTokens))
	}
	if cfg.Timeouts.Log() != 120*time.Second {
		t.Errorf("Timeouts.Log() = %v, want 2m", cfg.Timeouts.Log())
	}
	if cfg.Paths.ReportPath() != "citriage-report.md" {
		t.Errorf("ReportPath() = %q", cfg.Paths.ReportPath())
	}
	if cfg.Paths.LogPath() != "citriage-processing.log" {
		t.Errorf("LogPath() = %q", cfg.Paths.LogPath())
	}
	if cfg.Store.PostgresDSN != "" {
		t.Errorf("PostgresDSN = %q, want empty", cfg.Store.PostgresDSN)
	}
}

func TestLoad_File(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "citriage.yaml")
	content := `
provider:
  name: buildkite
  repository: acme/deploy
limit: 5
pricing:
  input_per_mtok: 1.5
condense:
  max_lines: 50
events:
  brokers:
    - localhost:9092
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Provider.Name != "buildkite" || cfg.Provider.Repository != "acme/deploy" {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
	if cfg.Limit != 5 {
		t.Errorf("Limit = %d, want 5", cfg.Limit)
	}
	if cfg.Pricing.InputPricePerMTok != 1.5 {
		t.Errorf("InputPricePerMTok = %v, want 1.5", cfg.Pricing.InputPricePerMTok)
	}
	// Unset keys keep their defaults.
	if cfg.Pricing.OutputPricePerMTok != Default().Pricing.OutputPricePerMTok {
		t.Errorf("OutputPricePerMTok = %v, want default", cfg.Pricing.OutputPricePerMTok)
	}
	if cfg.Condense.MaxLines != 50 {
		t.Errorf("MaxLines = %d, want 50", cfg.Condense.MaxLines)
	}
	if len(cfg.Events.Brokers) != 1 || cfg.Events.Brokers[0] != "localhost:9092" {
		t.Errorf("Brokers = %v", cfg.Events.Brokers)
	}
}

func TestNew_MissingExplicitFile(t *testing.T) {
	isolate(t)

	if _, err := New(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CITRIAGE_LIMIT", "7")
	t.Setenv("CITRIAGE_PATHS_PLAN_DIR", "/tmp/plans")
	t.Setenv("GH_TOKEN", "gh-secret")
	t.Setenv("BUILDKITE_API_TOKEN", "bk-secret")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	v, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Limit != 7 {
		t.Errorf("Limit = %d, want 7", cfg.Limit)
	}
	if cfg.Paths.PlanDir != "/tmp/plans" {
		t.Errorf("PlanDir = %q", cfg.Paths.PlanDir)
	}
	if cfg.Provider.GitHubToken != "gh-secret" {
		t.Errorf("GitHubToken = %q", cfg.Provider.GitHubToken)
	}
	if cfg.Summarizer.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.Summarizer.APIKey)
	}

	if got := cfg.Provider.Token(); got != "gh-secret" {
		t.Errorf("Token() for github = %q", got)
	}
	cfg.Provider.Name = "buildkite"
	if got := cfg.Provider.Token(); got != "bk-secret" {
		t.Errorf("Token() for buildkite = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown provider", func(c *Config) { c.Provider.Name = "jenkins" }, "provider.name"},
		{"zero concurrency", func(c *Config) { c.Provider.Concurrency = 0 }, "provider.concurrency"},
		{"limit too high", func(c *Config) { c.Limit = 500 }, "limit"},
		{"empty plan dir", func(c *Config) { c.Paths.PlanDir = "" }, "paths.plan_dir"},
		{"negative price", func(c *Config) { c.Pricing.InputPricePerMTok = -1 }, "pricing.input_per_mtok"},
		{"zero chars per token", func(c *Config) { c.Pricing.CharsPerToken = 0 }, "pricing.chars_per_token"},
		{"bad noise pattern", func(c *Config) { c.Condense.NoisePatterns = []string{"("} }, "condense.noise_patterns"},
		{"no signal tokens", func(c *Config) { c.Condense.SignalTokens = nil }, "condense.signal_tokens"},
		{"negative timeout", func(c *Config) { c.Timeouts.LogSeconds = -1 }, "timeouts.log_seconds"},
		{"zero max tokens", func(c *Config) { c.Summarizer.MaxTokens = 0 }, "summarizer.max_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() = %v, want exactly one error", errs)
			}
			if errs[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.field)
			}
		})
	}

	if errs := Default().Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v, want none", errs)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	isolate(t)
	t.Setenv("CITRIAGE_LIMIT", "0")
	t.Setenv("CITRIAGE_PROVIDER_NAME", "travis")

	v, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = Load(v)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Load() error = %v, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(verrs), verrs)
	}
	if !strings.Contains(err.Error(), "2 validation errors") {
		t.Errorf("Error() = %q", err.Error())
	}
}
