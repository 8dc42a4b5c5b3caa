package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"taskdeck/internal/config"
)

type keyMap struct {
	Quit    key.Binding
	Add     key.Binding
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Edit    key.Binding
	Refresh key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Next    key.Binding
	Yes     key.Binding
	No      key.Binding
}

func newKeyMap(k config.Keymap) keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys(k.Quit, "ctrl+c"), key.WithHelp(k.Quit, "quit")),
		Add:     key.NewBinding(key.WithKeys(k.Add), key.WithHelp(k.Add, "add")),
		Up:      key.NewBinding(key.WithKeys(k.Up, "up"), key.WithHelp(k.Up+"/↑", "up")),
		Down:    key.NewBinding(key.WithKeys(k.Down, "down"), key.WithHelp(k.Down+"/↓", "down")),
		Toggle:  key.NewBinding(key.WithKeys(k.Toggle), key.WithHelp(keyName(k.Toggle), "toggle")),
		Delete:  key.NewBinding(key.WithKeys(k.Delete), key.WithHelp(k.Delete, "delete")),
		Edit:    key.NewBinding(key.WithKeys(k.Edit), key.WithHelp(k.Edit, "edit")),
		Refresh: key.NewBinding(key.WithKeys(k.Refresh), key.WithHelp(k.Refresh, "refresh")),
		Confirm: key.NewBinding(key.WithKeys(k.Confirm), key.WithHelp(k.Confirm, "save")),
		Cancel:  key.NewBinding(key.WithKeys(k.Cancel), key.WithHelp(k.Cancel, "cancel")),
		Next:    key.NewBinding(key.WithKeys(k.NextField, "shift+tab"), key.WithHelp(k.NextField, "next field")),
		Yes:     key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "delete")),
		No:      key.NewBinding(key.WithKeys("n", "N", k.Cancel), key.WithHelp("n", "keep")),
	}
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Add, k.Toggle, k.Edit, k.Delete, k.Refresh, k.Quit}
}

func (k keyMap) formHelp() []key.Binding {
	return []key.Binding{k.Next, k.Confirm, k.Cancel}
}

func (k keyMap) confirmHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
