package httpapi

import (
	"context"
	"sync"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	mu sync.Mutex

	turn        *domain.Turn
	suggestions []string
	history     *domain.History
	pages       []string
	svg         string
	svgErr      error
	err         error

	askedURL      string
	askedSnapshot *domain.PageSnapshot
	cleared       string
}

func (m *mockChatService) Ask(_ context.Context, pageURL, _ string) (*domain.Turn, error) {
	m.askedURL = pageURL
	return m.turn, m.err
}

func (m *mockChatService) AskSnapshot(_ context.Context, snapshot *domain.PageSnapshot, _ string) (*domain.Turn, error) {
	m.askedSnapshot = snapshot
	return m.turn, m.err
}

func (m *mockChatService) Suggest(_ context.Context, pageURL string) ([]string, error) {
	m.askedURL = pageURL
	return m.suggestions, m.err
}

func (m *mockChatService) SuggestSnapshot(_ context.Context, snapshot *domain.PageSnapshot) ([]string, error) {
	m.askedSnapshot = snapshot
	return m.suggestions, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) (*domain.History, error) {
	return m.history, m.err
}

func (m *mockChatService) ClearHistory(_ context.Context, pageURL string) error {
	m.cleared = pageURL
	return m.err
}

func (m *mockChatService) Pages(_ context.Context) ([]string, error) {
	return m.pages, m.err
}

func (m *mockChatService) Extract(_ context.Context, _ string) (*domain.SemanticDocument, error) {
	return nil, m.err
}

func (m *mockChatService) Digest(_ context.Context, _ string) (string, error) {
	return "", m.err
}

func (m *mockChatService) RenderMessage(msg domain.ChatMessage) string {
	return "<p>" + msg.Content + "</p>"
}

func (m *mockChatService) ChartSVG(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.svg, m.svgErr
}
