package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func testModel(labels ...string) builtinModel {
	items := make([]list.Item, len(labels))
	for i, label := range labels {
		items[i] = builtinItem{index: i, label: label}
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	return builtinModel{list: list.New(items, delegate, 80, 24), choice: -1}
}

func TestBuiltinModelEnterSelects(t *testing.T) {
	m := testModel("first", "second", "third")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.(builtinModel).Update(tea.KeyMsg{Type: tea.KeyEnter})

	got := next.(builtinModel)
	if got.choice != 1 {
		t.Errorf("choice = %d, want 1", got.choice)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestBuiltinModelEscCancels(t *testing.T) {
	m := testModel("first", "second")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	got := next.(builtinModel)
	if !got.cancelled {
		t.Error("esc should cancel")
	}
	if got.choice != -1 {
		t.Errorf("choice = %d, want -1 after cancel", got.choice)
	}
}

func TestBuiltinModelResize(t *testing.T) {
	m := testModel("only")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	got := next.(builtinModel)
	if got.list.Width() != 120 {
		t.Errorf("width = %d, want 120", got.list.Width())
	}
}
