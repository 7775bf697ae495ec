package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review shortcuts.
type KeyMap struct {
	Confirm key.Binding
	Reject  key.Binding
	NoMatch key.Binding
	Skip    key.Binding
	Select  key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("c", "y"),
			key.WithHelp("c/y", "confirm suggestion"),
		),
		Reject: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "pick list item"),
		),
		NoMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no match"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "use selected item"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "stop reviewing"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Reject, k.NoMatch, k.Skip, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confirm, k.Reject, k.NoMatch, k.Skip},
		{k.Select, k.Back, k.Quit},
	}
}

// pickHelp is the help shown while choosing a list item.
type pickHelp struct{ keys KeyMap }

func (p pickHelp) ShortHelp() []key.Binding {
	return []key.Binding{p.keys.Select, p.keys.Back}
}

func (p pickHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{p.ShortHelp()}
}
