package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

func TestHistoryShowCmd(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()
	chat.history = &domain.History{Messages: []domain.ChatMessage{
		{ID: "1", Role: domain.RoleUser, Content: "Chart revenue", Timestamp: 1700000000000},
		{ID: "2", Role: domain.RoleAssistant, Type: domain.ResultVegaLite, Summary: "Revenue by quarter",
			Spec: json.RawMessage(`{}`), Timestamp: 1700000001000},
	}}

	out, err := run(t, "history", "show", testURL)

	require.NoError(t, err)
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "Chart revenue")
	assert.Contains(t, out, "(chart) Revenue by quarter")
}

func TestHistoryShowCmd_Empty(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "history", "show", testURL)

	require.NoError(t, err)
	assert.Contains(t, out, "No conversation for this page.")
}

func TestHistoryShowCmd_JSON(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { historyJSON = false }()
	chat.history = &domain.History{Key: domain.PageKeyPrefix + testURL, Version: 3}

	out, err := run(t, "history", "show", "--json", testURL)

	require.NoError(t, err)
	var h domain.History
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	assert.Equal(t, int64(3), h.Version)
}

func TestHistoryClearCmd(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "history", "clear", testURL)

	require.NoError(t, err)
	assert.Equal(t, []string{testURL}, chat.cleared)
	assert.Contains(t, out, "Cleared conversation for "+testURL)
}

func TestHistoryListCmd(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()
	chat.pages = []string{domain.PageKeyPrefix + testURL, "legacy-key"}

	out, err := run(t, "history", "list")

	require.NoError(t, err)
	assert.Contains(t, out, testURL)
	assert.NotContains(t, out, domain.PageKeyPrefix)
	assert.Contains(t, out, "legacy-key")
}

func TestHistoryListCmd_Empty(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "history", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No conversations stored.")
}
