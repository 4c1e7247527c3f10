package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

func newTestServer(t *testing.T, chat *mockChatService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Chat: chat})
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("markdown answer", func(t *testing.T) {
		chat := &mockChatService{turn: &domain.Turn{
			Result:      &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: "It grew."},
			Suggestions: []string{"a", "b", "c"},
		}}
		server := newTestServer(t, chat)

		res, out, err := server.handleAsk(ctx, nil, AskInput{URL: "https://example.com", Question: "q"})
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Equal(t, "markdown", out.Type)
		assert.Equal(t, "It grew.", out.Content)
		assert.Equal(t, []string{"a", "b", "c"}, out.Suggestions)
		assert.Equal(t, "https://example.com", chat.askedURL)
	})

	t.Run("chart answer waits for svg", func(t *testing.T) {
		events := make(chan domain.ChartEvent, 1)
		events <- domain.ChartEvent{ContainerID: "vega-container-1", Kind: domain.ChartRendered}
		chat := &mockChatService{
			turn: &domain.Turn{
				Result: &domain.NormalizedResult{Type: domain.ResultVegaLite, Spec: json.RawMessage(`{"mark":"bar"}`), Summary: "s"},
				Chart:  events,
			},
			svg: "<svg></svg>",
		}
		server := newTestServer(t, chat)

		_, out, err := server.handleAsk(ctx, nil, AskInput{URL: "https://example.com", Question: "chart"})
		require.NoError(t, err)
		assert.Equal(t, "vega-lite", out.Type)
		assert.Equal(t, `{"mark":"bar"}`, out.Spec)
		assert.Equal(t, "<svg></svg>", out.ChartSVG)
		assert.Empty(t, out.ChartError)
	})

	t.Run("chart failure is reported in output", func(t *testing.T) {
		events := make(chan domain.ChartEvent, 1)
		events <- domain.ChartEvent{ContainerID: "c", Kind: domain.ChartError, Message: "Chart container not found"}
		chat := &mockChatService{turn: &domain.Turn{
			Result: &domain.NormalizedResult{Type: domain.ResultVegaLite, Spec: json.RawMessage(`{}`)},
			Chart:  events,
		}}
		server := newTestServer(t, chat)

		_, out, err := server.handleAsk(ctx, nil, AskInput{URL: "https://example.com", Question: "chart"})
		require.NoError(t, err)
		assert.Equal(t, "Chart container not found", out.ChartError)
	})

	t.Run("user-facing failure becomes tool error", func(t *testing.T) {
		chat := &mockChatService{turn: &domain.Turn{Error: "API key not configured. Please configure it in settings."}}
		server := newTestServer(t, chat)

		res, _, err := server.handleAsk(ctx, nil, AskInput{URL: "https://example.com", Question: "q"})
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.IsError)
		require.Len(t, res.Content, 1)
		text, ok := res.Content[0].(*mcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, "Error: API key not configured. Please configure it in settings.", text.Text)
	})

	t.Run("invalid input is returned", func(t *testing.T) {
		chat := &mockChatService{err: domain.ErrInvalidInput}
		server := newTestServer(t, chat)

		_, _, err := server.handleAsk(ctx, nil, AskInput{URL: "nope"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleSuggest(t *testing.T) {
	server := newTestServer(t, &mockChatService{suggestions: []string{"x", "y", "z"}})
	_, out, err := server.handleSuggest(context.Background(), nil, PageInput{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, out.Suggestions)
}

func TestServer_handleExtract(t *testing.T) {
	chat := &mockChatService{doc: &domain.SemanticDocument{
		Page:    domain.PageInfo{Title: "T", URL: "https://example.com"},
		Content: []domain.ContentNode{{Tag: "h1", Text: "Hello", Level: 1}},
	}}
	server := newTestServer(t, chat)

	_, out, err := server.handleExtract(context.Background(), nil, PageInput{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "T", out.Title)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 1, out.Content[0].Level)
}

func TestServer_handleMarkdown(t *testing.T) {
	server := newTestServer(t, &mockChatService{markdown: "# Hello"})
	_, out, err := server.handleMarkdown(context.Background(), nil, PageInput{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "# Hello", out.Markdown)

	server = newTestServer(t, &mockChatService{err: errors.New("fetch failed")})
	_, _, err = server.handleMarkdown(context.Background(), nil, PageInput{URL: "https://example.com"})
	assert.EqualError(t, err, "fetch failed")
}

func TestServer_handleHistory(t *testing.T) {
	chat := &mockChatService{history: &domain.History{
		Key: "chatHistory_https://example.com/",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "q", Timestamp: 1},
			{Role: domain.RoleAssistant, Type: domain.ResultVegaLite, Summary: "chart", Timestamp: 2},
		},
	}}
	server := newTestServer(t, chat)

	_, out, err := server.handleHistory(context.Background(), nil, PageInput{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "user", out.Messages[0].Role)
	assert.Equal(t, "vega-lite", out.Messages[1].Type)
	assert.Equal(t, "chart", out.Messages[1].Summary)
}
