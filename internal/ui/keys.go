package ui

import (
	"strings"

	"charm.land/bubbles/v2/key"

	"github.com/idursun/mapview/internal/config"
)

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Find     key.Binding
	Tour     key.Binding
	Deselect key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap(keys config.KeysConfig) keyMap {
	return keyMap{
		Next:     binding(keys.Next, "next"),
		Prev:     binding(keys.Prev, "previous"),
		Find:     binding(keys.Find, "find"),
		Tour:     binding(keys.Tour, "tour"),
		Deselect: binding(keys.Deselect, "deselect"),
		Up:       binding(keys.Up, "pan up"),
		Down:     binding(keys.Down, "pan down"),
		Left:     binding(keys.Left, "pan left"),
		Right:    binding(keys.Right, "pan right"),
		ZoomIn:   binding(keys.ZoomIn, "zoom in"),
		ZoomOut:  binding(keys.ZoomOut, "zoom out"),
		Help:     binding(keys.Help, "help"),
		Quit:     binding(keys.Quit, "quit"),
	}
}

func binding(keys []string, desc string) key.Binding {
	b := key.NewBinding(key.WithKeys(keys...), key.WithHelp(strings.Join(keys, "/"), desc))
	if len(keys) == 0 {
		b.SetEnabled(false)
	}
	return b
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Find, k.Tour, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Find, k.Deselect},
		{k.Tour, k.Help, k.Quit},
		{k.Up, k.Down, k.Left, k.Right},
		{k.ZoomIn, k.ZoomOut},
	}
}
