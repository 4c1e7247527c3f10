package mcp

import (
	"context"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	turn        *domain.Turn
	suggestions []string
	doc         *domain.SemanticDocument
	markdown    string
	history     *domain.History
	pages       []string
	svg         string
	err         error

	askedURL string
}

func (m *mockChatService) Ask(_ context.Context, pageURL, _ string) (*domain.Turn, error) {
	m.askedURL = pageURL
	return m.turn, m.err
}

func (m *mockChatService) AskSnapshot(_ context.Context, _ *domain.PageSnapshot, _ string) (*domain.Turn, error) {
	return m.turn, m.err
}

func (m *mockChatService) Suggest(_ context.Context, _ string) ([]string, error) {
	return m.suggestions, m.err
}

func (m *mockChatService) SuggestSnapshot(_ context.Context, _ *domain.PageSnapshot) ([]string, error) {
	return m.suggestions, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) (*domain.History, error) {
	return m.history, m.err
}

func (m *mockChatService) ClearHistory(_ context.Context, _ string) error {
	return m.err
}

func (m *mockChatService) Pages(_ context.Context) ([]string, error) {
	return m.pages, m.err
}

func (m *mockChatService) Extract(_ context.Context, _ string) (*domain.SemanticDocument, error) {
	return m.doc, m.err
}

func (m *mockChatService) Digest(_ context.Context, _ string) (string, error) {
	return m.markdown, m.err
}

func (m *mockChatService) RenderMessage(msg domain.ChatMessage) string {
	return msg.Content
}

func (m *mockChatService) ChartSVG(_ context.Context, _ string) (string, error) {
	return m.svg, m.err
}
