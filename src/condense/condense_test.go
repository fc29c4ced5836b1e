package condense

import (
	"strings"
	"testing"
)

const githubLog = "2024-01-02T03:04:05.0000000Z ##[group]Run npm test\n" +
	"2024-01-02T03:04:05.1000000Z > app@1.0.0 test\n" +
	"2024-01-02T03:04:05.2000000Z ##[endgroup]\n" +
	"2024-01-02T03:04:06.0000000Z Downloading dependencies\n" +
	"2024-01-02T03:04:07.0000000Z ...\n" +
	"2024-01-02T03:04:08.0000000Z compiling module a\n" +
	"2024-01-02T03:04:09.0000000Z compiling module b\n" +
	"2024-01-02T03:04:10.0000000Z still running (10s)\n" +
	"2024-01-02T03:04:11.0000000Z still running (20s)\n" +
	"2024-01-02T03:04:12.0000000Z running suite\n" +
	"2024-01-02T03:04:13.0000000Z Traceback (most recent call last):\n" +
	"2024-01-02T03:04:13.1000000Z   File \"test_app.py\", line 12, in test_add\n" +
	"2024-01-02T03:04:13.2000000Z     assert add(1, 1) == 3\n" +
	"2024-01-02T03:04:13.3000000Z \x1b[31mAssertionError\x1b[0m: assert 2 == 3\n" +
	"2024-01-02T03:04:14.0000000Z \n" +
	"2024-01-02T03:04:15.0000000Z cleanup step 1\n" +
	"2024-01-02T03:04:16.0000000Z cleanup step 2\n" +
	"2024-01-02T03:04:17.0000000Z cleanup step 3\n" +
	"2024-01-02T03:04:18.0000000Z cleanup step 4\n" +
	"2024-01-02T03:04:19.0000000Z cleanup step 5\n" +
	"2024-01-02T03:04:20.0000000Z uploading artifacts\n" +
	"2024-01-02T03:04:21.0000000Z ##[error]Process completed with exit code 1.\n"

func newTestCondenser(t *testing.T, cfg Config) *Condenser {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestCondense_GitHubLog(t *testing.T) {
	c := newTestCondenser(t, DefaultConfig())

	got := c.Condense(githubLog)

	for _, want := range []string{
		"Traceback (most recent call last):",
		"  File \"test_app.py\", line 12, in test_add",
		"AssertionError: assert 2 == 3",
		"##[error]Process completed with exit code 1.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("condensed log missing %q\n---\n%s", want, got)
		}
	}

	for _, unwanted := range []string{
		"2024-01-02T",
		"\x1b[",
		"##[group]",
		"Downloading dependencies",
		"still running",
		"compiling module a",
	} {
		if strings.Contains(got, unwanted) {
			t.Errorf("condensed log should not contain %q\n---\n%s", unwanted, got)
		}
	}
}

func TestCondense_PreservesOrder(t *testing.T) {
	c := newTestCondenser(t, DefaultConfig())

	got := c.Condense(githubLog)

	tb := strings.Index(got, "Traceback")
	ae := strings.Index(got, "AssertionError")
	ec := strings.Index(got, "exit code 1")
	if !(tb >= 0 && tb < ae && ae < ec) {
		t.Errorf("signal lines out of order: traceback=%d assertion=%d exit=%d", tb, ae, ec)
	}
}

func TestCondense_EmptyAndNoise(t *testing.T) {
	c := newTestCondenser(t, DefaultConfig())

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t\n"},
		{"dots", "....\n.....\n"},
		{"heartbeats", "still running\nstill running\nWaiting for runner\n"},
		{"group markers", "##[group]Setup\n##[endgroup]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Condense(tt.input); got != "" {
				t.Errorf("Condense(%q) = %q, want empty", tt.input, got)
			}
		})
	}
}

func TestCondense_CollapsesRepeatedLines(t *testing.T) {
	c := newTestCondenser(t, DefaultConfig())

	input := "connection error attempt 1\nconnection error attempt 2\nconnection error attempt 3\ngiving up"
	got := c.Condense(input)

	if n := strings.Count(got, "connection error"); n != 1 {
		t.Errorf("expected repeated lines collapsed to 1, got %d\n%s", n, got)
	}
	if !strings.Contains(got, "giving up") {
		t.Errorf("expected trailing context to be kept, got %q", got)
	}
}

func TestCondense_SignalBeatsNoise(t *testing.T) {
	c := newTestCondenser(t, DefaultConfig())

	got := c.Condense("Waiting for database failed after 30s")
	if got != "Waiting for database failed after 30s" {
		t.Errorf("signal line dropped as noise: %q", got)
	}
}

func TestCondense_NoSignalKeepsTail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TailLines = 2
	c := newTestCondenser(t, cfg)

	got := c.Condense("step one\nstep two\nstep three\n")
	if got != "step two\nstep three" {
		t.Errorf("Condense() = %q, want last two lines", got)
	}

	cfg.TailLines = 0
	c = newTestCondenser(t, cfg)
	if got := c.Condense("step one\nstep two\n"); got != "" {
		t.Errorf("Condense() with TailLines=0 = %q, want empty", got)
	}
}

func TestCondense_MaxLinesKeepsTail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLines = 2
	cfg.ContextAfter = 0
	cfg.ContextBefore = 0
	c := newTestCondenser(t, cfg)

	got := c.Condense("error: a\nok\nerror: b\nok\nerror: c")
	if got != "error: b\nerror: c" {
		t.Errorf("Condense() = %q", got)
	}
}

func TestCondense_CustomTokens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SignalTokens = []string{"BOOM"}
	cfg.ContextBefore = 0
	cfg.ContextAfter = 0
	c := newTestCondenser(t, cfg)

	got := c.Condense("error: ignored\nthe boom happened\nafter")
	if got != "the boom happened" {
		t.Errorf("Condense() = %q, want only the custom signal line", got)
	}
}

func TestCondense_LengthAndStability(t *testing.T) {
	c := newTestCondenser(t, DefaultConfig())

	inputs := []string{
		githubLog,
		"plain\nlines\nonly",
		"\x1b_bk;t=1\x07--- FAIL: TestThing (0.01s)\n    thing_test.go:10: got 1 want 2\nFAIL\nexit status 1",
		"panic: runtime error: index out of range\n\ngoroutine 1 [running]:\nmain.main()\n\t/src/main.go:5 +0x1d",
	}

	for _, in := range inputs {
		once := c.Condense(in)
		if len(once) > len(in) {
			t.Errorf("condensed length %d exceeds input length %d", len(once), len(in))
		}
		twice := c.Condense(once)
		if twice != once {
			t.Errorf("condensing is not stable:\nonce:\n%s\ntwice:\n%s", once, twice)
		}
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoisePatterns = []string{"("}
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid noise pattern")
	}
}
