// Package cost projects the price of summarizing a condensed log.
//
// The default characters-per-token ratio sits below what the tokenizer
// usually achieves, so projected token counts run slightly high.
package cost

import (
	"math"
	"unicode/utf8"
)

// Pricing is the model used for estimates and for pricing real calls.
type Pricing struct {
	// InputPricePerMTok and OutputPricePerMTok are USD per million tokens.
	InputPricePerMTok  float64 `mapstructure:"input_per_mtok"`
	OutputPricePerMTok float64 `mapstructure:"output_per_mtok"`

	CharsPerToken        float64 `mapstructure:"chars_per_token"`
	PromptOverheadTokens int     `mapstructure:"prompt_overhead_tokens"`
	ExpectedOutputTokens int     `mapstructure:"expected_output_tokens"`

	// MinUsefulChars is the shortest condensed log worth summarizing.
	MinUsefulChars int `mapstructure:"min_useful_chars"`
}

// DefaultPricing matches a Sonnet-class model.
func DefaultPricing() Pricing {
	return Pricing{
		InputPricePerMTok:    3.00,
		OutputPricePerMTok:   15.00,
		CharsPerToken:        3.5,
		PromptOverheadTokens: 150,
		ExpectedOutputTokens: 400,
		MinUsefulChars:       50,
	}
}

// Decimals is the precision of rounded totals.
const Decimals = 4

// Estimator prices condensed logs. It holds no state beyond its Pricing.
type Estimator struct {
	pricing Pricing
}

// New returns an Estimator. A non-positive CharsPerToken falls back to the default.
func New(p Pricing) *Estimator {
	if p.CharsPerToken <= 0 {
		p.CharsPerToken = DefaultPricing().CharsPerToken
	}
	return &Estimator{pricing: p}
}

// Pricing returns the pricing in effect.
func (e *Estimator) Pricing() Pricing {
	return e.pricing
}

// Eligible reports whether a condensed log is long enough to be worth a call.
func (e *Estimator) Eligible(condensed string) bool {
	n := utf8.RuneCountInString(condensed)
	return n > 0 && n >= e.pricing.MinUsefulChars
}

// Tokens approximates the input token count for a condensed log,
// prompt overhead included. Ineligible logs count as zero.
func (e *Estimator) Tokens(condensed string) int {
	if !e.Eligible(condensed) {
		return 0
	}
	chars := float64(utf8.RuneCountInString(condensed))
	return int(math.Ceil(chars/e.pricing.CharsPerToken)) + e.pricing.PromptOverheadTokens
}

// Estimate returns the projected USD cost of summarizing condensed.
func (e *Estimator) Estimate(condensed string) float64 {
	tokens := e.Tokens(condensed)
	if tokens == 0 {
		return 0
	}
	return e.Actual(tokens, e.pricing.ExpectedOutputTokens)
}

// Actual prices a completed call from its reported usage.
func (e *Estimator) Actual(inputTokens, outputTokens int) float64 {
	in := float64(max(inputTokens, 0)) * e.pricing.InputPricePerMTok / 1e6
	out := float64(max(outputTokens, 0)) * e.pricing.OutputPricePerMTok / 1e6
	return in + out
}

// Round rounds v to Decimals places.
func Round(v float64) float64 {
	scale := math.Pow10(Decimals)
	return math.Round(v*scale) / scale
}
