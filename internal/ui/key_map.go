package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	play       key.Binding
	next       key.Binding
	prev       key.Binding
	shuffle    key.Binding
	repeat     key.Binding
	like       key.Binding
	volumeUp   key.Binding
	volumeDown key.Binding
	forward    key.Binding
	rewind     key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		play:       key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		shuffle:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		like:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		volumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		forward:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+10s")),
		rewind:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-10s")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.next, k.prev, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.play, k.next, k.prev},
		{k.shuffle, k.repeat, k.like},
		{k.volumeUp, k.volumeDown, k.forward, k.rewind},
		{k.help, k.quit},
	}
}
