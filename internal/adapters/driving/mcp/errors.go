// Package mcp provides an MCP (Model Context Protocol) server adapter for pagechat.
// It lets AI assistants ask questions about web pages and read their
// stored conversations.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
