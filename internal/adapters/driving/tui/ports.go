// Package tui provides an interactive terminal user interface for pagechat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Chat answers questions about pages and keeps their conversations.
	Chat driving.ChatService

	// Settings manages application settings. Optional; the settings view
	// reports an error when it is missing.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(chat driving.ChatService, settings driving.SettingsService) *Ports {
	return &Ports{
		Chat:     chat,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
