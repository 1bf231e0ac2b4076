package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmModelYes(t *testing.T) {
	m, cmd := confirmModel{message: "restore backup?"}.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	cm := m.(confirmModel)
	if !cm.confirmed || !cm.done {
		t.Fatalf("expected confirmed+done after 'y', got %+v", cm)
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}

func TestConfirmModelNo(t *testing.T) {
	m, _ := confirmModel{message: "restore backup?"}.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	cm := m.(confirmModel)
	if cm.confirmed || !cm.done {
		t.Fatalf("expected declined+done after 'n', got %+v", cm)
	}
}

func TestConfirmModelEnterDeclines(t *testing.T) {
	m, _ := confirmModel{message: "restore backup?"}.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cm := m.(confirmModel)
	if cm.confirmed || !cm.done {
		t.Fatalf("expected enter to decline by default, got %+v", cm)
	}
}

func TestConfirmModelCtrlCCancels(t *testing.T) {
	m, _ := confirmModel{message: "restore backup?"}.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	cm := m.(confirmModel)
	if !cm.canceled || !cm.done {
		t.Fatalf("expected canceled+done after ctrl+c, got %+v", cm)
	}
}

func TestConfirmModelViewEmptyWhenDone(t *testing.T) {
	m := confirmModel{message: "restore backup?", done: true}
	if m.View() != "" {
		t.Fatal("expected empty view once the dialog is done")
	}
}

