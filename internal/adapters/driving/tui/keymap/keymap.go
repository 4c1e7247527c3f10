// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Send submits the typed question.
	Send key.Binding

	// Up and Down navigate lists and scroll the transcript.
	Up   key.Binding
	Down key.Binding

	Select key.Binding

	// NextSuggestion cycles the suggested questions into the input.
	NextSuggestion key.Binding

	// Clear removes the conversation of the open page.
	Clear key.Binding

	// Delete removes the highlighted page conversation.
	Delete key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "pgup"),
			key.WithHelp("↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "pgdown"),
			key.WithHelp("↓", "scroll down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		NextSuggestion: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "suggestion"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear chat"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NextSuggestion, k.Back}
}

// ChatHelp returns keybindings shown once a conversation has messages.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.NextSuggestion, k.Up, k.Clear, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.NextSuggestion, k.Clear},
		{k.Up, k.Down, k.Select, k.Delete},
		{k.Back, k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
