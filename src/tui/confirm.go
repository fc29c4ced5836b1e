package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"citriage/src/gate"
)

// ConfirmPrompter asks the gate question with a bubbletea prompt. Only
// an explicit yes confirms; Enter, Esc, n and Ctrl+C decline.
type ConfirmPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p *ConfirmPrompter) Confirm(ctx context.Context, prompt gate.Prompt) (bool, error) {
	var opts []tea.ProgramOption
	opts = append(opts, tea.WithContext(ctx))
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(newConfirmModel(prompt), opts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	m, ok := final.(confirmModel)
	return ok && m.accepted, nil
}

type confirmModel struct {
	prompt   gate.Prompt
	styles   *StyleConfig
	accepted bool
	done     bool
}

func newConfirmModel(prompt gate.Prompt) confirmModel {
	return confirmModel{prompt: prompt, styles: DefaultStyles()}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.accepted = true
	case "n", "N", "enter", "esc", "ctrl+c", "q":
		m.accepted = false
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	cost := lipgloss.NewStyle().Foreground(m.styles.Pending).Bold(true).
		Render(fmt.Sprintf("$%.4f", m.prompt.Cost))

	if m.done {
		answer := lipgloss.NewStyle().Foreground(m.styles.Failed).Render("declined")
		if m.accepted {
			answer = lipgloss.NewStyle().Foreground(m.styles.Passed).Render("confirmed")
		}
		return fmt.Sprintf("AI summaries (%s): %s\n", cost, answer)
	}

	question := m.styles.TitleStyle().Render(
		fmt.Sprintf("Summarize %d failed job(s) with AI?", m.prompt.EligibleJobs))
	keys := m.styles.HelpStyle().Render("y: yes • n/Enter: no")
	return fmt.Sprintf("%s\nEstimated cost: %s\n%s\n", question, cost, keys)
}
