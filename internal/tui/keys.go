package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the game and its menus.
type KeyMap struct {
	Advance     key.Binding
	Skip        key.Binding
	Auto        key.Binding
	Choose      key.Binding
	NextHotspot key.Binding
	Trigger     key.Binding
	Save        key.Binding
	Load        key.Binding
	Copy        key.Binding
	Settings    key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Select      key.Binding
	Back        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Advance, k.Choose, k.Trigger, k.Skip, k.Auto, k.Help}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Advance, k.Choose, k.NextHotspot, k.Trigger},
		{k.Skip, k.Auto, k.Settings},
		{k.Save, k.Load, k.Copy},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Advance: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "advance"),
		),
		Skip: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "skip mode"),
		),
		Auto: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "auto mode"),
		),
		Choose: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "choose"),
		),
		NextHotspot: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next hotspot"),
		),
		Trigger: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "inspect hotspot"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "quicksave"),
		),
		Load: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "load"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy transcript"),
		),
		Settings: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "settings"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("left", "slower"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("right", "faster"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}
