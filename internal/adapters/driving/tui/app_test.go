package tui

import (
	"context"
	"errors"
	"reflect"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/messages"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

const testPage = "https://example.com/sales"

var messagesPkg = reflect.TypeOf(messages.Quit{}).PkgPath()

func newTestApp(t *testing.T) (*App, *MockChatService) {
	t.Helper()
	chat := &MockChatService{}
	app, err := NewApp(NewPorts(chat, &MockSettingsService{}))
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app, chat
}

// drain runs cmd and feeds the resulting application messages back into
// the app, following batches. Cursor blink and other bubbles messages are
// dropped so the loop terminates.
func drain(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(app, c)
		}
	default:
		if reflect.TypeOf(msg).PkgPath() != messagesPkg {
			return
		}
		_, next := app.Update(msg)
		drain(app, next)
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(NewPorts(&MockChatService{}, nil))

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Settings: &MockSettingsService{}})

	assert.ErrorIs(t, err, ErrMissingChatService)
	assert.Nil(t, app)
}

func TestNewApp_UnconfiguredNotice(t *testing.T) {
	settings := &MockSettingsService{validateErr: errors.New("API key is required")}
	app, err := NewApp(NewPorts(&MockChatService{}, settings))
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	assert.Contains(t, app.View(), "LLM not configured: API key is required")

	settings.validateErr = nil
	app.Update(messages.ViewChanged{View: messages.ViewMenu})
	assert.NotContains(t, app.View(), "LLM not configured")
}

func TestApp_WithContext(t *testing.T) {
	app, _ := newTestApp(t)

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
}

func TestApp_Init(t *testing.T) {
	app, _ := newTestApp(t)

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	chat := &MockChatService{}
	app, _ := NewApp(NewPorts(chat, nil))
	assert.Equal(t, "Initialising...", app.View())

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Nil(t, cmd)
	assert.True(t, model.(*App).Ready())
	assert.Contains(t, app.View(), "pagechat")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_MenuNavigation(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(app, cmd)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Contains(t, app.View(), "Open a page to start chatting.")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(app, cmd)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_HelpView(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Insert next suggested question")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_OpenPage(t *testing.T) {
	chat := &MockChatService{history: &domain.History{Messages: []domain.ChatMessage{
		{ID: "1", Role: domain.RoleUser, Content: "What is this?"},
		{ID: "2", Role: domain.RoleAssistant, Content: "A sales report.", IsHTML: true},
	}}}
	app, err := NewApp(NewPorts(chat, nil))
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	app.OpenPage(testPage)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	drain(app, app.chatView.SetPage(testPage))

	assert.Equal(t, testPage, app.Page())
	out := app.View()
	assert.Contains(t, out, "A sales report.")
	assert.Contains(t, out, "one")
}

func TestApp_AskRoundTrip(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(messages.PageSelected{PageURL: testPage})
	for _, r := range "Summarise" {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	drain(app, cmd)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Contains(t, app.View(), "1. one")
}

func TestApp_PagesOpenConversation(t *testing.T) {
	app, chat := newTestApp(t)
	chat.pages = []string{domain.PageKeyPrefix + testPage}

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewPages})
	drain(app, cmd)
	assert.Contains(t, app.View(), testPage)

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(app, cmd)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, testPage, app.Page())
}

func TestApp_PagesClearConversation(t *testing.T) {
	app, chat := newTestApp(t)
	chat.pages = []string{domain.PageKeyPrefix + testPage}
	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewPages})
	drain(app, cmd)

	chat.pages = nil
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	drain(app, cmd)

	assert.Equal(t, []string{testPage}, chat.cleared)
	assert.Contains(t, app.View(), "No conversations yet")
}

func TestApp_SettingsView(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSettings})
	drain(app, cmd)

	assert.Equal(t, messages.ViewSettings, app.CurrentView())
	assert.Contains(t, app.View(), "Settings")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t)
	boom := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: boom})

	assert.Equal(t, boom, app.Err())
}
