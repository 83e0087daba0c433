package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines key bindings for the dashboard
type keyMap struct {
	ToggleExitNode key.Binding
	EditRoutes     key.Binding
	Reauthenticate key.Binding
	Logout         key.Binding
	Refresh        key.Binding
	Help           key.Binding
	Quit           key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleExitNode, k.EditRoutes, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleExitNode, k.EditRoutes},
		{k.Reauthenticate, k.Logout},
		{k.Refresh, k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleExitNode: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle exit node"),
		),
		EditRoutes: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "edit routes"),
		),
		Reauthenticate: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "reauthenticate"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r", "R"),
			key.WithHelp("R", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
