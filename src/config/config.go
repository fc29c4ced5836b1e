// Package config provides configuration management for citriage.
//
// Values come from, in increasing priority: built-in defaults, the YAML
// config file, and environment variables (CITRIAGE_ prefix, plus the
// conventional token variables).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"citriage/src/condense"
	"citriage/src/cost"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override,
// e.g. CITRIAGE_PATHS_PLAN_DIR for paths.plan_dir.
const EnvPrefix = "CITRIAGE"

// Config represents the complete citriage configuration.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Limit      int              `mapstructure:"limit"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Pricing    cost.Pricing     `mapstructure:"pricing"`
	Condense   condense.Config  `mapstructure:"condense"`
	Timeouts   TimeoutConfig    `mapstructure:"timeouts"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Events     EventsConfig     `mapstructure:"events"`
	Store      StoreConfig      `mapstructure:"store"`
}

// ProviderConfig selects and authenticates the CI provider.
type ProviderConfig struct {
	// Name is "github" or "buildkite".
	Name string `mapstructure:"name"`
	// Repository is owner/repo (GitHub) or org/pipeline (Buildkite).
	// Empty means discover it from the git remote.
	Repository string `mapstructure:"repository"`
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string `mapstructure:"base_url"`
	// GitHubToken is read from GITHUB_TOKEN or GH_TOKEN when unset.
	GitHubToken string `mapstructure:"github_token"`
	// BuildkiteToken is read from BUILDKITE_API_TOKEN when unset.
	BuildkiteToken string `mapstructure:"buildkite_token"`
	// Concurrency is how many job logs are fetched at once (1 = sequential).
	Concurrency int `mapstructure:"concurrency"`
}

// Token returns the credential for the selected provider.
func (p ProviderConfig) Token() string {
	if strings.EqualFold(p.Name, "buildkite") {
		return p.BuildkiteToken
	}
	return p.GitHubToken
}

// PathsConfig controls where artifacts are written.
type PathsConfig struct {
	PlanDir    string `mapstructure:"plan_dir"`
	OutputDir  string `mapstructure:"output_dir"`
	ArchiveDir string `mapstructure:"archive_dir"`
}

// ReportPath is where execute writes the markdown report.
func (p PathsConfig) ReportPath() string {
	return filepath.Join(p.OutputDir, "citriage-report.md")
}

// LogPath is where execute writes the processing log.
func (p PathsConfig) LogPath() string {
	return filepath.Join(p.OutputDir, "citriage-processing.log")
}

// TimeoutConfig bounds network calls, in seconds. Zero disables a limit.
type TimeoutConfig struct {
	MetadataSeconds  int `mapstructure:"metadata_seconds"`
	LogSeconds       int `mapstructure:"log_seconds"`
	SummarizeSeconds int `mapstructure:"summarize_seconds"`
}

func (t TimeoutConfig) Metadata() time.Duration {
	return time.Duration(t.MetadataSeconds) * time.Second
}

func (t TimeoutConfig) Log() time.Duration {
	return time.Duration(t.LogSeconds) * time.Second
}

func (t TimeoutConfig) Summarize() time.Duration {
	return time.Duration(t.SummarizeSeconds) * time.Second
}

// SummarizerConfig configures the Anthropic Messages client.
type SummarizerConfig struct {
	// APIKey is read from ANTHROPIC_API_KEY when unset.
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// EventsConfig enables lifecycle events on a Redpanda/Kafka cluster.
// No brokers means events stay in process.
type EventsConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

// StoreConfig selects the plan store. An empty DSN means the file store
// under paths.plan_dir.
type StoreConfig struct {
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:        "github",
			Concurrency: 1,
		},
		Limit: 20,
		Paths: PathsConfig{
			PlanDir:    filepath.Join(".citriage", "plans"),
			OutputDir:  ".",
			ArchiveDir: filepath.Join(".citriage", "archive"),
		},
		Pricing:  cost.DefaultPricing(),
		Condense: condense.DefaultConfig(),
		Timeouts: TimeoutConfig{
			MetadataSeconds:  30,
			LogSeconds:       120,
			SummarizeSeconds: 90,
		},
		Summarizer: SummarizerConfig{
			Model:     "claude-sonnet-4-5",
			BaseURL:   "https://api.anthropic.com",
			MaxTokens: 600,
		},
	}
}

// ConfigDir returns the directory holding the default config file.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "citriage")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "citriage")
	}
	return filepath.Join(home, ".config", "citriage")
}

// SetDefaults registers every default on v so that env overrides apply
// even without a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.repository", d.Provider.Repository)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.github_token", "")
	v.SetDefault("provider.buildkite_token", "")
	v.SetDefault("provider.concurrency", d.Provider.Concurrency)

	v.SetDefault("limit", d.Limit)

	v.SetDefault("paths.plan_dir", d.Paths.PlanDir)
	v.SetDefault("paths.output_dir", d.Paths.OutputDir)
	v.SetDefault("paths.archive_dir", d.Paths.ArchiveDir)

	v.SetDefault("pricing.input_per_mtok", d.Pricing.InputPricePerMTok)
	v.SetDefault("pricing.output_per_mtok", d.Pricing.OutputPricePerMTok)
	v.SetDefault("pricing.chars_per_token", d.Pricing.CharsPerToken)
	v.SetDefault("pricing.prompt_overhead_tokens", d.Pricing.PromptOverheadTokens)
	v.SetDefault("pricing.expected_output_tokens", d.Pricing.ExpectedOutputTokens)
	v.SetDefault("pricing.min_useful_chars", d.Pricing.MinUsefulChars)

	v.SetDefault("condense.signal_tokens", d.Condense.SignalTokens)
	v.SetDefault("condense.noise_patterns", d.Condense.NoisePatterns)
	v.SetDefault("condense.context_before", d.Condense.ContextBefore)
	v.SetDefault("condense.context_after", d.Condense.ContextAfter)
	v.SetDefault("condense.max_lines", d.Condense.MaxLines)
	v.SetDefault("condense.tail_lines", d.Condense.TailLines)

	v.SetDefault("timeouts.metadata_seconds", d.Timeouts.MetadataSeconds)
	v.SetDefault("timeouts.log_seconds", d.Timeouts.LogSeconds)
	v.SetDefault("timeouts.summarize_seconds", d.Timeouts.SummarizeSeconds)

	v.SetDefault("summarizer.api_key", "")
	v.SetDefault("summarizer.model", d.Summarizer.Model)
	v.SetDefault("summarizer.base_url", d.Summarizer.BaseURL)
	v.SetDefault("summarizer.max_tokens", d.Summarizer.MaxTokens)

	v.SetDefault("events.brokers", []string{})
	v.SetDefault("store.postgres_dsn", "")
}

// New returns a viper instance with defaults, env bindings and, when
// present, the config file loaded. An explicit cfgFile must exist.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// CITRIAGE_PATHS_PLAN_DIR for paths.plan_dir
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional credential variables.
	_ = v.BindEnv("provider.github_token", EnvPrefix+"_PROVIDER_GITHUB_TOKEN", "GITHUB_TOKEN", "GH_TOKEN")
	_ = v.BindEnv("provider.buildkite_token", EnvPrefix+"_PROVIDER_BUILDKITE_TOKEN", "BUILDKITE_API_TOKEN")
	_ = v.BindEnv("summarizer.api_key", EnvPrefix+"_SUMMARIZER_API_KEY", "ANTHROPIC_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}
