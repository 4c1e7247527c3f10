package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/keymap"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.MessageCount())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilArgs(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())
	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		count   int
		want    string
	}{
		{"ready", StateReady, "", 0, "Ready"},
		{"message count", StateReady, "", 4, "4 messages"},
		{"ready message", StateReady, "History cleared", 0, "History cleared"},
		{"thinking", StateThinking, "", 0, "Thinking..."},
		{"rendering", StateRendering, "", 2, "Rendering chart..."},
		{"error", StateError, "API key not configured", 0, "Error: API key not configured"},
		{"bare error", StateError, "", 0, "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(200)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetMessageCount(tt.count)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_HintsFollowConversation(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)

	assert.NotContains(t, bar.View(), "clear chat")

	bar.SetMessageCount(2)
	assert.Contains(t, bar.View(), "clear chat")
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetMessageCount(3)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.MessageCount())
}
