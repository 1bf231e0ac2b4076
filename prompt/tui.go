// Package prompt provides the default InteractivePrompt, a Bubble Tea
// confirmation dialog used by the Failure Handler's rollback step
// (spec.md §4.7) whenever Features.PromptForConfirmation is set.
package prompt

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// InteractivePrompt confirms destructive actions (rollback restoration)
// through a terminal prompt. It implements the failure.Prompt interface.
type InteractivePrompt struct{}

// New creates an InteractivePrompt.
func New() *InteractivePrompt {
	return &InteractivePrompt{}
}

// Confirm runs a [y/N] Bubble Tea program and blocks until the user answers
// or ctx is canceled.
func (p *InteractivePrompt) Confirm(ctx context.Context, message string) (bool, error) {
	program := tea.NewProgram(confirmModel{message: message}, tea.WithContext(ctx))

	result, err := program.Run()
	if err != nil {
		return false, err
	}

	m, ok := result.(confirmModel)
	if !ok {
		return false, errors.New("prompt: unexpected program result type")
	}
	if m.canceled {
		return false, ctx.Err()
	}
	return m.confirmed, nil
}

type confirmModel struct {
	message   string
	confirmed bool
	canceled  bool
	done      bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.confirmed = true
		m.done = true
		return m, tea.Quit
	case "n", "N", "esc", "enter":
		m.confirmed = false
		m.done = true
		return m, tea.Quit
	case "ctrl+c":
		m.canceled = true
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	return TitleStyle.Render(m.message) + "\n" + HelpStyle.Render("[y/N]")
}

var _ tea.Model = confirmModel{}
