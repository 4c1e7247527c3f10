package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/storage/memory"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/markdown"
)

const testPage = "https://example.com/report?tab=2"

func testSnapshot() *domain.PageSnapshot {
	return &domain.PageSnapshot{
		Page: domain.PageInfo{Title: "Report", URL: testPage},
		Root: domain.Element("body", nil,
			domain.Element("h1", nil, domain.Text("Annual report")),
			domain.Element("p", nil, domain.Text("Revenue grew.")),
		),
	}
}

// newTestChat wires a chat service over memory storage and a fixed page.
func newTestChat(gw *mockGateway) *ChatService {
	snapshots := &mockSnapshotSource{snapshots: map[string]*domain.PageSnapshot{testPage: testSnapshot()}}
	service := NewChatService(gw, NewConversationService(memory.NewConversationStore(0)), snapshots, markdown.NewRenderer())
	n := 0
	service.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	service.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return service
}

func TestChatService_AskMarkdown(t *testing.T) {
	gw := &mockGateway{
		result:      &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: "Revenue **grew**."},
		suggestions: []string{"a", "b", "c"},
	}
	service := newTestChat(gw)

	turn, err := service.Ask(context.Background(), testPage, "  What happened?  ")
	require.NoError(t, err)

	assert.Equal(t, "chatHistory_https://example.com/report", turn.PageKey)
	assert.Equal(t, "What happened?", turn.Question)
	assert.Equal(t, "<p>Revenue <strong>grew</strong>.</p>", turn.HTML)
	assert.Empty(t, turn.Error)
	assert.Equal(t, []string{"a", "b", "c"}, turn.Suggestions)

	require.Len(t, gw.docs, 1)
	assert.Equal(t, "Report", gw.docs[0].Page.Title)
	assert.Len(t, gw.docs[0].Content, 2)

	h, err := service.History(context.Background(), testPage)
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, domain.ChatMessage{ID: "id-1", Role: domain.RoleUser, Content: "What happened?", Timestamp: 1700000000000}, h.Messages[0])
	assert.Equal(t, domain.RoleAssistant, h.Messages[1].Role)
	assert.Equal(t, domain.ResultMarkdown, h.Messages[1].Type)
	assert.True(t, h.Messages[1].IsHTML)

	// Suggestions see the full exchange.
	require.Len(t, gw.histories, 1)
	assert.Len(t, gw.histories[0], 2)
}

func TestChatService_AskChartWithoutSurface(t *testing.T) {
	gw := &mockGateway{result: &domain.NormalizedResult{
		Type: domain.ResultVegaLite, Spec: json.RawMessage(`{"mark":"line"}`), Summary: "Revenue *up*",
	}}
	service := newTestChat(gw)

	turn, err := service.Ask(context.Background(), testPage, "chart it")
	require.NoError(t, err)

	assert.Equal(t, "vega-container-id-2", turn.ChartID)
	assert.Nil(t, turn.Chart)
	assert.Equal(t,
		`<div class="chart-summary"><p>Revenue <em>up</em></p></div><div class="vega-lite-container" id="vega-container-id-2"></div>`,
		turn.HTML)

	h, _ := service.History(context.Background(), testPage)
	reply := h.Messages[1]
	assert.True(t, reply.IsChart())
	assert.Empty(t, reply.Content)
	assert.JSONEq(t, `{"mark":"line"}`, string(reply.Spec))
	assert.Equal(t, "Revenue *up*", reply.Summary)
}

func TestChatService_AskChartRenders(t *testing.T) {
	gw := &mockGateway{result: &domain.NormalizedResult{Type: domain.ResultVegaLite, Spec: json.RawMessage(`{"mark":"bar"}`)}}
	service := newTestChat(gw)
	surface := newFakeSurface()
	surface.ack = &domain.ChartSignal{Rendered: true}
	surface.probes = []domain.ChartProbe{{Rendered: true}}
	service.SetChartRenderer(newTestRenderer(surface))

	turn, err := service.Ask(context.Background(), testPage, "chart")
	require.NoError(t, err)
	require.NotNil(t, turn.Chart)

	ev := await(t, turn.Chart)
	assert.Equal(t, domain.ChartRendered, ev.Kind)
	assert.Equal(t, turn.ChartID, ev.ContainerID)
	assert.Equal(t, `<div class="vega-lite-container" id="`+turn.ChartID+`"></div>`, turn.HTML)
}

func TestChatService_AskUserFacingErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"config", &domain.ConfigError{Message: "API key not configured. Please configure it in settings."}},
		{"api", &domain.APIError{StatusCode: 401, Message: "Invalid key"}},
		{"network", &domain.NetworkError{Err: context.DeadlineExceeded}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{err: tt.err, suggestErr: tt.err}
			service := newTestChat(gw)

			turn, err := service.Ask(context.Background(), testPage, "q")
			require.NoError(t, err)
			assert.Equal(t, tt.err.Error(), turn.Error)
			assert.Equal(t, FollowUpSuggestions, turn.Suggestions)

			h, _ := service.History(context.Background(), testPage)
			require.Len(t, h.Messages, 2)
			assert.Equal(t, "Error: "+tt.err.Error(), h.Messages[1].Content)
			assert.False(t, h.Messages[1].IsHTML)
		})
	}
}

func TestChatService_AskPageUnavailable(t *testing.T) {
	gw := &mockGateway{}
	service := newTestChat(gw)

	turn, err := service.Ask(context.Background(), "https://example.com/missing", "q")
	require.NoError(t, err)
	assert.Contains(t, turn.Error, "could not load page")
	assert.Empty(t, gw.questions, "no LLM call without a page")
}

func TestChatService_AskRejectsBadInput(t *testing.T) {
	service := newTestChat(&mockGateway{})

	_, err := service.Ask(context.Background(), testPage, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.Ask(context.Background(), "relative/path", "q")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.AskSnapshot(context.Background(), nil, "q")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChatService_AskInternalErrorIsReturned(t *testing.T) {
	gw := &mockGateway{err: errors.New("prompt store exploded")}
	service := newTestChat(gw)

	_, err := service.Ask(context.Background(), testPage, "q")
	assert.EqualError(t, err, "prompt store exploded")
}

func TestChatService_AskStorageFailure(t *testing.T) {
	store := &conflictStore{ConversationStore: memory.NewConversationStore(0), appendErr: errStorage}
	service := NewChatService(&mockGateway{}, NewConversationService(store), &mockSnapshotSource{}, markdown.NewRenderer())

	_, err := service.Ask(context.Background(), testPage, "q")
	assert.ErrorIs(t, err, errStorage)
}

func TestChatService_AskSnapshot(t *testing.T) {
	gw := &mockGateway{result: &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: "ok"}}
	service := newTestChat(gw)
	service.snapshots = nil

	turn, err := service.AskSnapshot(context.Background(), testSnapshot(), "q")
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", turn.HTML)
	assert.Equal(t, "Annual report", gw.docs[0].Content[0].Text)
}

func TestChatService_ConcurrentTurnsKeepEveryMessage(t *testing.T) {
	gw := &mockGateway{result: &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: "ok"}}
	service := newTestChat(gw)
	var mu sync.Mutex
	n := 0
	service.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprint(n)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.AskSnapshot(context.Background(), testSnapshot(), "q")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	h, err := service.History(context.Background(), testPage)
	require.NoError(t, err)
	assert.Len(t, h.Messages, 8)
}

func TestChatService_Suggest(t *testing.T) {
	t.Run("gateway suggestions", func(t *testing.T) {
		service := newTestChat(&mockGateway{suggestions: []string{"x", "y", "z"}})
		got, err := service.Suggest(context.Background(), testPage)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, got)
	})

	t.Run("fallback without history", func(t *testing.T) {
		service := newTestChat(&mockGateway{suggestErr: &domain.ConfigError{Message: "no key"}})
		got, err := service.Suggest(context.Background(), testPage)
		require.NoError(t, err)
		assert.Equal(t, DefaultSuggestions, got)
	})

	t.Run("fallback with history", func(t *testing.T) {
		gw := &mockGateway{result: &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: "ok"}}
		service := newTestChat(gw)
		_, err := service.Ask(context.Background(), testPage, "q")
		require.NoError(t, err)

		gw.suggestErr = errors.New("boom")
		got, err := service.SuggestSnapshot(context.Background(), testSnapshot())
		require.NoError(t, err)
		assert.Equal(t, FollowUpSuggestions, got)
	})
}

func TestChatService_SuggestResultsAreIndependent(t *testing.T) {
	defaults := append([]string(nil), DefaultSuggestions...)
	followUps := append([]string(nil), FollowUpSuggestions...)

	tests := []struct {
		name    string
		gateway *mockGateway
		asked   bool
	}{
		{"gateway", &mockGateway{suggestions: []string{"x?", "y?", "z?"}}, false},
		{"fallback without history", &mockGateway{suggestErr: errors.New("boom")}, false},
		{"fallback with history", &mockGateway{suggestErr: errors.New("boom")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service := newTestChat(tt.gateway)
			if tt.asked {
				tt.gateway.result = &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: "ok"}
				_, err := service.Ask(ctx, testPage, "q")
				require.NoError(t, err)
			}

			first, err := service.Suggest(ctx, testPage)
			require.NoError(t, err)
			want := append([]string(nil), first...)
			first[0] = "mutated"

			second, err := service.Suggest(ctx, testPage)
			require.NoError(t, err)
			assert.Equal(t, want, second)
			assert.Equal(t, defaults, DefaultSuggestions)
			assert.Equal(t, followUps, FollowUpSuggestions)
		})
	}
}

func TestChatService_HistoryManagement(t *testing.T) {
	gw := &mockGateway{result: &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: "ok"}}
	service := newTestChat(gw)
	ctx := context.Background()
	_, err := service.Ask(ctx, testPage, "q")
	require.NoError(t, err)

	pages, err := service.Pages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chatHistory_https://example.com/report"}, pages)

	require.NoError(t, service.ClearHistory(ctx, "https://example.com/report"))
	h, _ := service.History(ctx, testPage)
	assert.Empty(t, h.Messages)
}

func TestChatService_ExtractAndDigest(t *testing.T) {
	service := newTestChat(&mockGateway{})
	ctx := context.Background()

	doc, err := service.Extract(ctx, testPage)
	require.NoError(t, err)
	assert.Equal(t, testPage, doc.Page.URL)

	_, err = service.Digest(ctx, testPage)
	assert.Error(t, err)

	service.SetDigester(&mockDigester{markdown: "# Annual report"})
	md, err := service.Digest(ctx, testPage)
	require.NoError(t, err)
	assert.Equal(t, "# Annual report", md)
}

func TestChatService_RenderMessage(t *testing.T) {
	service := newTestChat(&mockGateway{})

	assert.Equal(t, "a &lt;b&gt;", service.RenderMessage(domain.ChatMessage{Content: "a <b>"}))
	assert.Equal(t, "<p><strong>x</strong></p>", service.RenderMessage(domain.ChatMessage{Content: "**x**", IsHTML: true}))
	assert.Equal(t,
		`<div class="vega-lite-container" id="vega-container-m1"></div>`,
		service.RenderMessage(domain.ChatMessage{ID: "m1", Type: domain.ResultVegaLite, Spec: json.RawMessage(`{}`)}))
}

func TestChatService_ChartSVG(t *testing.T) {
	service := newTestChat(&mockGateway{})
	_, err := service.ChartSVG(context.Background(), "c")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	surface := newFakeSurface()
	surface.svg = "<svg/>"
	service.SetChartRenderer(newTestRenderer(surface))
	svg, err := service.ChartSVG(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", svg)
}
