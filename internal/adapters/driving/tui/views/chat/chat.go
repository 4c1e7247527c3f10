// Package chat provides the conversation view for one page.
package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/components/input"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/components/status"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/components/transcript"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/keymap"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/messages"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/styles"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
)

// View is the chat view: transcript, suggestions, question input and status bar.
// Until a page is open the input takes the page address instead of a question.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	chat driving.ChatService
	ctx  context.Context

	page        string
	suggestions []string
	suggestion  int
	busy        bool
	err         error

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: transcript.New(s),
		statusbar:  status.NewBar(s, km),
		chat:       chat,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
	v.input.SetPlaceholder("Enter a page URL...")
	return v
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Focus focuses the input.
func (v *View) Focus() tea.Cmd {
	return v.input.Focus()
}

// SetPage attaches the view to a page and loads its conversation.
func (v *View) SetPage(pageURL string) tea.Cmd {
	v.page = pageURL
	v.busy = false
	v.err = nil
	v.suggestions = nil
	v.suggestion = 0
	v.transcript.Clear()
	v.statusbar.Clear()
	v.input.Reset()
	v.input.SetPlaceholder("Ask about this page...")
	return tea.Batch(v.input.Focus(), v.loadHistory(), v.loadSuggestions())
}

// Page returns the open page address.
func (v *View) Page() string {
	return v.page
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.TurnCompleted:
		if msg.PageURL != v.page {
			return v, nil
		}
		return v, v.handleTurn(msg)

	case messages.ChartFinished:
		v.transcript.ChartFinished(msg.Event)
		if msg.Event.Kind == domain.ChartError {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Event.Message)
		} else if v.statusbar.State() == status.StateRendering {
			v.statusbar.SetState(status.StateReady)
		}
		return v, nil

	case messages.HistoryLoaded:
		if msg.PageURL != v.page {
			return v, nil
		}
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.transcript.SetMessages(msg.History.Messages)
		v.statusbar.SetMessageCount(len(msg.History.Messages))
		return v, nil

	case messages.SuggestionsLoaded:
		if msg.PageURL != v.page {
			return v, nil
		}
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.setSuggestions(msg.Suggestions)
		return v, nil

	case messages.HistoryCleared:
		if msg.PageURL != v.page {
			return v, nil
		}
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.transcript.Clear()
		v.statusbar.Clear()
		v.statusbar.SetMessage("History cleared")
		return v, v.loadSuggestions()

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(msg.String(), v.keymap.Send):
		return v, v.submit()

	case keymap.Matches(msg.String(), v.keymap.NextSuggestion):
		if len(v.suggestions) > 0 {
			v.input.SetValue(v.suggestions[v.suggestion])
			v.suggestion = (v.suggestion + 1) % len(v.suggestions)
		}
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.Clear):
		if v.page == "" || v.busy {
			return v, nil
		}
		return v, v.clearHistory()

	case keymap.Matches(msg.String(), v.keymap.Up), keymap.Matches(msg.String(), v.keymap.Down):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit opens a page or asks a question, depending on state.
func (v *View) submit() tea.Cmd {
	text := v.input.Question()
	if text == "" || v.busy {
		return nil
	}

	if v.page == "" {
		if _, err := domain.PageKey(text); err != nil {
			v.fail(err)
			return nil
		}
		return v.SetPage(text)
	}

	v.busy = true
	v.err = nil
	v.input.Reset()
	v.transcript.SetPending(text)
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	return v.ask(v.page, text)
}

func (v *View) handleTurn(msg messages.TurnCompleted) tea.Cmd {
	v.busy = false
	v.transcript.SetPending("")

	if msg.Err != nil {
		v.fail(msg.Err)
		return v.loadHistory()
	}

	turn := msg.Turn
	v.setSuggestions(turn.Suggestions)
	cmds := []tea.Cmd{v.loadHistory()}

	switch {
	case turn.Error != "":
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(turn.Error)
	case turn.Chart != nil:
		v.transcript.ChartStarted(turn.ChartID)
		v.statusbar.SetState(status.StateRendering)
		cmds = append(cmds, v.waitChart(turn.Chart))
	default:
		v.statusbar.SetState(status.StateReady)
	}
	return tea.Batch(cmds...)
}

func (v *View) fail(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) setSuggestions(s []string) {
	v.suggestions = s
	v.suggestion = 0
}

// Commands.

func (v *View) ask(pageURL, question string) tea.Cmd {
	ctx, chat := v.ctx, v.chat
	return func() tea.Msg {
		if chat == nil {
			return messages.TurnCompleted{PageURL: pageURL, Err: ErrNoChatService}
		}
		turn, err := chat.Ask(ctx, pageURL, question)
		return messages.TurnCompleted{PageURL: pageURL, Turn: turn, Err: err}
	}
}

func (v *View) waitChart(events <-chan domain.ChartEvent) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			return messages.ChartFinished{Event: ev}
		case <-ctx.Done():
			return nil
		}
	}
}

func (v *View) loadHistory() tea.Cmd {
	ctx, chat, pageURL := v.ctx, v.chat, v.page
	return func() tea.Msg {
		if chat == nil {
			return messages.HistoryLoaded{PageURL: pageURL, Err: ErrNoChatService}
		}
		h, err := chat.History(ctx, pageURL)
		return messages.HistoryLoaded{PageURL: pageURL, History: h, Err: err}
	}
}

func (v *View) loadSuggestions() tea.Cmd {
	ctx, chat, pageURL := v.ctx, v.chat, v.page
	return func() tea.Msg {
		if chat == nil {
			return messages.SuggestionsLoaded{PageURL: pageURL, Err: ErrNoChatService}
		}
		s, err := chat.Suggest(ctx, pageURL)
		return messages.SuggestionsLoaded{PageURL: pageURL, Suggestions: s, Err: err}
	}
}

func (v *View) clearHistory() tea.Cmd {
	ctx, chat, pageURL := v.ctx, v.chat, v.page
	return func() tea.Msg {
		if chat == nil {
			return messages.HistoryCleared{PageURL: pageURL, Err: ErrNoChatService}
		}
		return messages.HistoryCleared{PageURL: pageURL, Err: chat.ClearHistory(ctx, pageURL)}
	}
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	header := v.styles.Title.Render("pagechat")
	if v.page != "" {
		header += "  " + v.styles.Muted.Render(v.page)
	}
	sections = append(sections, header, "")

	if v.page == "" {
		sections = append(sections, v.styles.Muted.Render("Open a page to start chatting."))
	} else {
		sections = append(sections, v.transcript.View())
	}

	if len(v.suggestions) > 0 {
		sections = append(sections, "", v.renderSuggestions())
	}

	sections = append(sections, "", v.input.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderSuggestions() string {
	items := make([]string, len(v.suggestions))
	for i, s := range v.suggestions {
		items[i] = v.styles.Suggestion.Render(fmt.Sprintf("%d. %s", i+1, s))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.transcript.SetDimensions(width, height-12)
}

// Suggestions returns the displayed follow-up questions.
func (v *View) Suggestions() []string {
	return v.suggestions
}

// Messages returns the displayed conversation.
func (v *View) Messages() []domain.ChatMessage {
	return v.transcript.Messages()
}

// Busy returns whether a question is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Input returns the current input text.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput sets the input text.
func (v *View) SetInput(s string) {
	v.input.SetValue(s)
}

// ChartStatus returns the displayed state of a chart container.
func (v *View) ChartStatus(containerID string) string {
	return v.transcript.ChartStatus(containerID)
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}
