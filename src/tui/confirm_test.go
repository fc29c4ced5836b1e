package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"citriage/src/gate"
)

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		key      tea.KeyMsg
		accepted bool
		quits    bool
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Y")}, true, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false, true},
		{tea.KeyMsg{Type: tea.KeyEnter}, false, true},
		{tea.KeyMsg{Type: tea.KeyEsc}, false, true},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, false, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			m := newConfirmModel(gate.Prompt{Cost: 0.0123, EligibleJobs: 2})
			updated, cmd := m.Update(tt.key)
			got := updated.(confirmModel)
			if got.accepted != tt.accepted {
				t.Errorf("accepted = %t, want %t", got.accepted, tt.accepted)
			}
			if (cmd != nil) != tt.quits {
				t.Errorf("quit cmd = %v, want quit=%t", cmd != nil, tt.quits)
			}
		})
	}
}

func TestConfirmModel_View(t *testing.T) {
	m := newConfirmModel(gate.Prompt{Cost: 0.0123, EligibleJobs: 2})
	view := m.View()
	if !strings.Contains(view, "2 failed job(s)") || !strings.Contains(view, "$0.0123") {
		t.Errorf("View() = %q", view)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if !strings.Contains(updated.View(), "confirmed") {
		t.Errorf("View() after yes = %q", updated.View())
	}
}

func TestConfirmPrompter_ReadsInput(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y", true},
		{"n", false},
		{"\r", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			p := &ConfirmPrompter{In: strings.NewReader(tt.input), Out: &out}
			got, err := p.Confirm(context.Background(), gate.Prompt{Cost: 0.01, EligibleJobs: 1})
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm(%q) = %t, want %t", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfirmPrompter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &ConfirmPrompter{In: strings.NewReader(""), Out: &bytes.Buffer{}}
	ok, err := p.Confirm(ctx, gate.Prompt{Cost: 0.01, EligibleJobs: 1})
	if ok {
		t.Error("cancelled prompt must not confirm")
	}
	if err == nil {
		t.Error("cancelled prompt should report the context error")
	}
}

var _ gate.Prompter = (*ConfirmPrompter)(nil)
