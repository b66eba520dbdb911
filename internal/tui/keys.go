package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Focus   key.Binding
	Press   key.Binding
	Predict key.Binding
	Quit    key.Binding
}

var DefaultKeyMap = KeyMap{
	Focus: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "switch focus"),
	),
	Press: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "press button"),
	),
	Predict: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "predict"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Predict, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Focus, k.Press},
		{k.Predict, k.Quit},
	}
}
