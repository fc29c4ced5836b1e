package condense

// Config tunes the condenser. The zero value keeps nothing; start from
// DefaultConfig and override fields.
type Config struct {
	// SignalTokens are matched case-insensitively as substrings. A line
	// containing any of them is kept along with its context.
	SignalTokens []string `mapstructure:"signal_tokens"`

	// NoisePatterns are regular expressions for lines that carry no
	// diagnostic value. Signal lines are never treated as noise.
	NoisePatterns []string `mapstructure:"noise_patterns"`

	ContextBefore int `mapstructure:"context_before"`
	ContextAfter  int `mapstructure:"context_after"`

	// MaxLines caps the output; when exceeded the tail is kept since the
	// failure reason is usually near the end. Zero disables the cap.
	MaxLines int `mapstructure:"max_lines"`

	// TailLines is how many trailing lines to keep when a log has no
	// signal line at all.
	TailLines int `mapstructure:"tail_lines"`
}

// DefaultSignalTokens are language-agnostic failure markers.
var DefaultSignalTokens = []string{
	"error",
	"exception",
	"traceback",
	"failed",
	"failure",
	"fatal",
	"panic",
	"assertionerror",
	"importerror",
	"modulenotfounderror",
	"syntaxerror",
	"typeerror",
	"valueerror",
	"keyerror",
	"exit code",
	"--- fail",
	"✗",
	"segmentation fault",
}

// DefaultNoisePatterns match progress output, heartbeats and log grouping markers.
var DefaultNoisePatterns = []string{
	`^\s*$`,
	`^\s*\.+\s*$`,
	`^\s*[=\-_*~#]{4,}\s*$`,
	`^##\[(group|endgroup)\]`,
	`(?i)^\s*(still running|still waiting|waiting for|heartbeat)\b`,
	`(?i)^\s*(downloading|downloaded|extracting|unpacking|resolving deltas|receiving objects|remote: (counting|compressing|enumerating|total))\b`,
	`^\s*\d{1,3}(\.\d+)?%\s*$`,
	`\[[#=>\- ]{5,}\]\s*\d{1,3}%`,
}

// DefaultConfig returns the condenser configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		SignalTokens:  append([]string(nil), DefaultSignalTokens...),
		NoisePatterns: append([]string(nil), DefaultNoisePatterns...),
		ContextBefore: 2,
		ContextAfter:  4,
		MaxLines:      400,
		TailLines:     20,
	}
}
