// Package transcript renders a page conversation in a scrollable viewport.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/styles"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// Chart render states shown under chart replies.
const (
	chartPending  = "Rendering chart..."
	chartRendered = "Chart rendered"
)

// Transcript shows the messages of one conversation.
type Transcript struct {
	styles   *styles.Styles
	viewport viewport.Model
	messages []domain.ChatMessage
	charts   map[string]string
	pending  string
	width    int
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		styles:   s,
		viewport: viewport.New(80, 10),
		charts:   make(map[string]string),
		width:    80,
	}
}

// Update forwards scrolling keys to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the conversation.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// SetMessages replaces the conversation and scrolls to the newest message.
func (t *Transcript) SetMessages(msgs []domain.ChatMessage) {
	t.messages = msgs
	t.refresh()
}

// Append adds messages to the end of the conversation.
func (t *Transcript) Append(msgs ...domain.ChatMessage) {
	t.messages = append(t.messages, msgs...)
	t.refresh()
}

// Messages returns the displayed conversation.
func (t *Transcript) Messages() []domain.ChatMessage {
	return t.messages
}

// SetPending shows a placeholder reply while a question is in flight.
func (t *Transcript) SetPending(question string) {
	t.pending = question
	t.refresh()
}

// ChartStarted marks a chart container as rendering.
func (t *Transcript) ChartStarted(containerID string) {
	t.charts[containerID] = chartPending
	t.refresh()
}

// ChartFinished records the outcome of a chart render.
func (t *Transcript) ChartFinished(ev domain.ChartEvent) {
	if ev.Kind == domain.ChartError {
		msg := ev.Message
		if msg == "" {
			msg = "Unknown error"
		}
		t.charts[ev.ContainerID] = "Error: " + msg
	} else {
		t.charts[ev.ContainerID] = chartRendered
	}
	t.refresh()
}

// ChartStatus returns the displayed state of a chart container.
func (t *Transcript) ChartStatus(containerID string) string {
	return t.charts[containerID]
}

// Clear empties the transcript.
func (t *Transcript) Clear() {
	t.messages = nil
	t.pending = ""
	t.charts = make(map[string]string)
	t.refresh()
}

// SetDimensions sizes the viewport.
func (t *Transcript) SetDimensions(width, height int) {
	if height < 1 {
		height = 1
	}
	t.width = width
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.render())
	t.viewport.GotoBottom()
}

func (t *Transcript) render() string {
	if len(t.messages) == 0 && t.pending == "" {
		return t.styles.Muted.Render("No messages yet. Ask something about the page.")
	}

	body := lipgloss.NewStyle().Width(max(t.width-2, 10))
	blocks := make([]string, 0, len(t.messages)+2)
	for _, m := range t.messages {
		blocks = append(blocks, t.renderMessage(body, m))
	}
	if t.pending != "" {
		blocks = append(blocks,
			t.styles.UserLabel.Render("You")+"\n"+body.Render(t.pending),
			t.styles.AssistantLabel.Render("Assistant")+"\n"+t.styles.Muted.Render("Thinking..."),
		)
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) renderMessage(body lipgloss.Style, m domain.ChatMessage) string {
	if m.Role == domain.RoleUser {
		return t.styles.UserLabel.Render("You") + "\n" + body.Render(m.Content)
	}

	label := t.styles.AssistantLabel.Render("Assistant")
	switch {
	case m.IsChart():
		status := t.charts[m.ChartContainerID()]
		if status == "" {
			status = "Chart"
		}
		box := t.styles.Chart.Render("[vega-lite] " + status)
		if m.Summary != "" {
			box += "\n" + body.Render(m.Summary)
		}
		return label + "\n" + box
	case !m.IsHTML && strings.HasPrefix(m.Content, "Error: "):
		return label + "\n" + t.styles.Error.Render(body.Render(m.Content))
	default:
		return label + "\n" + body.Render(m.Content)
	}
}
