package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the popup.
type keyMap struct {
	next    key.Binding
	prev    key.Binding
	save    key.Binding
	login   key.Binding
	recheck key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		save:    key.NewBinding(key.WithKeys("ctrl+s", "enter"), key.WithHelp("ctrl+s", "save")),
		login:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "login")),
		recheck: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "recheck")),
		quit:    key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.save, k.login, k.recheck, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev},
		{k.save, k.login, k.recheck},
		{k.quit},
	}
}
