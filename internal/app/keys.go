package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global bindings. Everything else goes to the widget.
type KeyMap struct {
	Help     key.Binding
	Debug    key.Binding
	Escape   key.Binding
	Quit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Debug: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "debug log"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll debug log up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll debug log down"),
		),
	}
}

func (k KeyMap) bindings() []key.Binding {
	return []key.Binding{k.Help, k.Debug, k.Escape, k.Quit, k.PageUp, k.PageDown}
}
