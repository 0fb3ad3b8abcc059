package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Select  key.Binding
	Node    key.Binding
	Connect key.Binding
	Delete  key.Binding
	Undo    key.Binding
	Redo    key.Binding
	Save    key.Binding
	Cancel  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Node, k.Connect, k.Undo, k.Redo, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.Node, k.Connect},
		{k.Delete, k.Undo, k.Redo},
		{k.Save, k.Cancel, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Select: key.NewBinding(
		key.WithKeys("v", "1"),
		key.WithHelp("v", "select/move"),
	),
	Node: key.NewBinding(
		key.WithKeys("n", "2"),
		key.WithHelp("n", "node tool"),
	),
	Connect: key.NewBinding(
		key.WithKeys("c", "3"),
		key.WithHelp("c", "connect tool"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "delete selected"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "undo"),
	),
	Redo: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "redo"),
	),
	Save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel gesture"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
