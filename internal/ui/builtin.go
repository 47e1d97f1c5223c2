package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"flick/internal/media"
)

// Builtin is an in-process list picker used when no external menu
// binary is available. Filtering works like fzf's fuzzy match.
type Builtin struct{}

var builtinTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("205")).
	Padding(0, 1)

type builtinItem struct {
	index int
	label string
}

func (i builtinItem) Title() string       { return i.label }
func (i builtinItem) Description() string { return "" }
func (i builtinItem) FilterValue() string { return i.label }

type builtinModel struct {
	list      list.Model
	choice    int
	cancelled bool
}

func (m builtinModel) Init() tea.Cmd { return nil }

func (m builtinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// Don't intercept keys while the user is typing a filter
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(builtinItem); ok {
				m.choice = item.index
			}
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m builtinModel) View() string { return m.list.View() }

// Select presents items in a terminal list and returns the chosen index.
func (b *Builtin) Select(prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return -1, fmt.Errorf("built-in menu needs an interactive terminal")
	}

	listItems := make([]list.Item, len(items))
	for i, label := range items {
		listItems[i] = builtinItem{index: i, label: label}
	}

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width, height = 80, 24
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false

	l := list.New(listItems, delegate, width, height)
	l.Title = prompt
	l.Styles.Title = builtinTitleStyle
	l.SetShowStatusBar(false)

	model := builtinModel{list: l, choice: -1}
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return -1, fmt.Errorf("running built-in menu: %w", err)
	}

	m := final.(builtinModel)
	if m.cancelled || m.choice < 0 {
		return -1, media.ErrCancelled
	}

	return m.choice, nil
}
