package mcp

import (
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server needs.
type Ports struct {
	// Chat answers questions about pages.
	Chat driving.ChatService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
