package table

import "charm.land/bubbles/v2/key"

// KeyMap defines the table keybindings.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Bottom    key.Binding
	PrevCol   key.Binding
	NextCol   key.Binding
	Sort      key.Binding
	Filter    key.Binding
	Clear     key.Binding
	Help      key.Binding
	Quit      key.Binding
	ScrollL   key.Binding
	ScrollR   key.Binding
	MultiSort key.Binding
	Copy      key.Binding
}

// DefaultKeyMap returns the vim-flavoured default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "page down")),
		Top:       key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		PrevCol:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
		NextCol:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
		Sort:      key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("s/ent", "sort column")),
		MultiSort: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle multi-sort")),
		Filter:    key.NewBinding(key.WithKeys("/", "f"), key.WithHelp("/", "filter")),
		Clear:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		ScrollL:   key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "scroll left")),
		ScrollR:   key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "scroll right")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy row")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevCol, k.NextCol, k.Sort, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.PrevCol, k.NextCol, k.ScrollL, k.ScrollR},
		{k.Sort, k.MultiSort, k.Filter, k.Clear, k.Copy, k.Help, k.Quit},
	}
}
