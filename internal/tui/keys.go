package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Annotate key.Binding
	Remove   key.Binding
	NextMark key.Binding
	Insert   key.Binding
	Normal   key.Binding
	Save     key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next file")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev file")),
		Annotate: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "annotate")),
		Remove:   key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "remove highlights")),
		NextMark: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next highlight")),
		Insert:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insert")),
		Normal:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave insert")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "page down")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Annotate, k.Remove, k.Next, k.Insert, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Annotate, k.Remove, k.NextMark},
		{k.Next, k.Prev, k.Insert, k.Normal, k.Save},
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown},
		{k.Help, k.Quit},
	}
}
