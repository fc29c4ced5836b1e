package config

import (
	"fmt"
	"slices"
	"strings"

	"citriage/src/condense"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "timeouts.log_seconds")
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidProviders returns the supported CI provider names.
func ValidProviders() []string {
	return []string{"github", "buildkite"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if !slices.Contains(ValidProviders(), strings.ToLower(c.Provider.Name)) {
		add("provider.name", c.Provider.Name, "must be one of "+strings.Join(ValidProviders(), ", "))
	}
	if c.Provider.Concurrency < 1 || c.Provider.Concurrency > 16 {
		add("provider.concurrency", c.Provider.Concurrency, "must be between 1 and 16")
	}
	if c.Limit < 1 || c.Limit > 100 {
		add("limit", c.Limit, "must be between 1 and 100")
	}

	if c.Paths.PlanDir == "" {
		add("paths.plan_dir", c.Paths.PlanDir, "must not be empty")
	}

	if c.Pricing.InputPricePerMTok < 0 {
		add("pricing.input_per_mtok", c.Pricing.InputPricePerMTok, "must not be negative")
	}
	if c.Pricing.OutputPricePerMTok < 0 {
		add("pricing.output_per_mtok", c.Pricing.OutputPricePerMTok, "must not be negative")
	}
	if c.Pricing.CharsPerToken <= 0 {
		add("pricing.chars_per_token", c.Pricing.CharsPerToken, "must be positive")
	}
	if c.Pricing.PromptOverheadTokens < 0 {
		add("pricing.prompt_overhead_tokens", c.Pricing.PromptOverheadTokens, "must not be negative")
	}
	if c.Pricing.ExpectedOutputTokens < 0 {
		add("pricing.expected_output_tokens", c.Pricing.ExpectedOutputTokens, "must not be negative")
	}
	if c.Pricing.MinUsefulChars < 0 {
		add("pricing.min_useful_chars", c.Pricing.MinUsefulChars, "must not be negative")
	}

	if c.Condense.ContextBefore < 0 {
		add("condense.context_before", c.Condense.ContextBefore, "must not be negative")
	}
	if c.Condense.ContextAfter < 0 {
		add("condense.context_after", c.Condense.ContextAfter, "must not be negative")
	}
	if c.Condense.MaxLines < 0 {
		add("condense.max_lines", c.Condense.MaxLines, "must not be negative")
	}
	if len(c.Condense.SignalTokens) == 0 {
		add("condense.signal_tokens", c.Condense.SignalTokens, "must list at least one token")
	}
	if _, err := condense.New(c.Condense); err != nil {
		add("condense.noise_patterns", c.Condense.NoisePatterns, err.Error())
	}

	if c.Timeouts.MetadataSeconds < 0 {
		add("timeouts.metadata_seconds", c.Timeouts.MetadataSeconds, "must not be negative")
	}
	if c.Timeouts.LogSeconds < 0 {
		add("timeouts.log_seconds", c.Timeouts.LogSeconds, "must not be negative")
	}
	if c.Timeouts.SummarizeSeconds < 0 {
		add("timeouts.summarize_seconds", c.Timeouts.SummarizeSeconds, "must not be negative")
	}

	if c.Summarizer.MaxTokens < 1 {
		add("summarizer.max_tokens", c.Summarizer.MaxTokens, "must be positive")
	}
	if c.Summarizer.Model == "" {
		add("summarizer.model", c.Summarizer.Model, "must not be empty")
	}

	return errs
}
