package cli

import "github.com/charmbracelet/bubbles/key"

// boardKeyMap defines the key bindings of the interactive board.
type boardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Grab    key.Binding // Pick up the task under the cursor, or drop it.
	Cancel  key.Binding // Put a grabbed task back without moving it.
	Next    key.Binding
	Prev    key.Binding
	Details key.Binding
	Quit    key.Binding
}

var defaultBoardKeys = boardKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "done/undo"),
	),
	Grab: key.NewBinding(
		key.WithKeys("m", "enter"),
		key.WithHelp("m", "move"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel move"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "p"),
		key.WithHelp("tab", "next project"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "P"),
		key.WithHelp("S-tab", "prev project"),
	),
	Details: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "details"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// shortHelp lists the bindings shown in the help line.
func (k boardKeyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Grab, k.Next, k.Details, k.Quit}
}
