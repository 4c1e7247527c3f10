// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// QuestionSubmitted is sent when the user asks a question.
type QuestionSubmitted struct {
	PageURL  string
	Question string
}

// TurnCompleted carries the outcome of a question back to the model.
type TurnCompleted struct {
	PageURL string
	Turn    *domain.Turn
	Err     error
}

// ChartFinished carries the terminal event of a chart render.
type ChartFinished struct {
	Event domain.ChartEvent
}

// SuggestionsLoaded carries follow-up questions for the open page.
type SuggestionsLoaded struct {
	PageURL     string
	Suggestions []string
	Err         error
}

// HistoryLoaded carries the stored conversation of a page.
type HistoryLoaded struct {
	PageURL string
	History *domain.History
	Err     error
}

// HistoryCleared signals a conversation was removed.
type HistoryCleared struct {
	PageURL string
	Err     error
}

// PagesLoaded carries the keys of every stored conversation.
type PagesLoaded struct {
	Pages []string
	Err   error
}

// PageSelected opens the chat for a page.
type PageSelected struct {
	PageURL string
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the conversation with one page.
	ViewChat
	// ViewPages lists pages with stored conversations.
	ViewPages
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewSettings is the settings configuration view.
	ViewSettings
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewPages:
		return "pages"
	case ViewHelp:
		return "help"
	case ViewSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals settings were saved.
type SettingsSaved struct {
	Err error
}
