package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

const testURL = "https://example.com/report"

func TestAskCmd_RequiresTwoArgs(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "ask", testURL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestAskCmd_Markdown(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "ask", testURL, "How did revenue change?")

	require.NoError(t, err)
	assert.Equal(t, []string{testURL + " How did revenue change?"}, chat.asked)
	assert.Contains(t, out, "**Revenue** grew 12%.")
	assert.Contains(t, out, "Suggested questions:")
	assert.Contains(t, out, "  3. Compare to last year")
}

func TestAskCmd_JSON(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { askJSON = false }()

	out, err := run(t, "ask", "--json", testURL, "q")

	require.NoError(t, err)
	var turn domain.Turn
	require.NoError(t, json.Unmarshal([]byte(out), &turn))
	assert.Equal(t, domain.ResultMarkdown, turn.Result.Type)
	assert.Len(t, turn.Suggestions, 3)
}

func TestAskCmd_TurnError(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()
	chat.turn = &domain.Turn{Error: "API key not configured. Please configure it in settings."}

	_, err := run(t, "ask", testURL, "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
}

func TestAskCmd_ServiceError(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()
	chat.err = errors.New("store closed")

	_, err := run(t, "ask", testURL, "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ask failed: store closed")
}

func TestAskCmd_ChartRendered(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { askSVG = "" }()

	events := make(chan domain.ChartEvent, 1)
	events <- domain.ChartEvent{ContainerID: "vega-container-2", Kind: domain.ChartRendered}
	chat.turn = &domain.Turn{
		Result: &domain.NormalizedResult{
			Type:    domain.ResultVegaLite,
			Spec:    json.RawMessage(`{"mark":"bar"}`),
			Summary: "Revenue by quarter",
		},
		ChartID: "vega-container-2",
		Chart:   events,
	}
	chat.svg = "<svg></svg>"
	path := filepath.Join(t.TempDir(), "chart.svg")

	out, err := run(t, "ask", "--svg", path, testURL, "chart it")

	require.NoError(t, err)
	assert.Contains(t, out, "Revenue by quarter")
	assert.Contains(t, out, `{"mark":"bar"}`)
	assert.Contains(t, out, "Chart written to")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<svg></svg>", string(data))
}

func TestAskCmd_ChartError(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()

	events := make(chan domain.ChartEvent, 1)
	events <- domain.ChartEvent{Kind: domain.ChartError, Message: "Invalid spec"}
	chat.turn = &domain.Turn{
		Result: &domain.NormalizedResult{Type: domain.ResultVegaLite, Spec: json.RawMessage(`{}`)},
		Chart:  events,
	}

	_, err := run(t, "ask", testURL, "chart it")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chart render failed: Invalid spec")
}

func TestSuggestCmd(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()
	chat.suggestions = []string{"What is the main topic?", "Summarize the key points", "What data is shown?"}

	out, err := run(t, "suggest", testURL)

	require.NoError(t, err)
	assert.Contains(t, out, "Summarize the key points")
}
