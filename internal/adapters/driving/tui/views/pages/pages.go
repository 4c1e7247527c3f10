// Package pages provides the stored conversations view for the TUI.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/components/list"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/messages"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/styles"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
)

var errNoChatService = errors.New("chat service not available")

// View lists every page with a stored conversation.
type View struct {
	styles *styles.Styles
	chat   driving.ChatService
	ctx    context.Context
	list   *list.PageList

	width   int
	height  int
	ready   bool
	loading bool
	err     error
}

// NewView creates a new pages view.
func NewView(s *styles.Styles, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		chat:   chat,
		ctx:    context.Background(),
		list:   list.NewPageList(s),
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the stored pages.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadPages()
}

func (v *View) loadPages() tea.Cmd {
	ctx, chat := v.ctx, v.chat
	return func() tea.Msg {
		if chat == nil {
			return messages.PagesLoaded{Err: errNoChatService}
		}
		keys, err := chat.Pages(ctx)
		return messages.PagesLoaded{Pages: keys, Err: err}
	}
}

func (v *View) clear(pageURL string) tea.Cmd {
	ctx, chat := v.ctx, v.chat
	return func() tea.Msg {
		if chat == nil {
			return messages.HistoryCleared{PageURL: pageURL, Err: errNoChatService}
		}
		return messages.HistoryCleared{PageURL: pageURL, Err: chat.ClearHistory(ctx, pageURL)}
	}
}

// Update handles messages for the pages view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PagesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.list.SetPages(msg.Pages)
		return v, nil

	case messages.HistoryCleared:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.loadPages()
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "enter":
		if pageURL, ok := v.selectedURL(); ok {
			return v, func() tea.Msg {
				return messages.PageSelected{PageURL: pageURL}
			}
		}
	case "d", "delete":
		if pageURL, ok := v.selectedURL(); ok {
			return v, v.clear(pageURL)
		}
	case "r":
		v.loading = true
		return v, v.loadPages()
	default:
		v.list, _ = v.list.Update(msg)
	}
	return v, nil
}

// selectedURL returns the page address behind the selected key.
func (v *View) selectedURL() (string, bool) {
	key := v.list.SelectedKey()
	if key == "" {
		return "", false
	}
	return domain.PageURL(key)
}

// View renders the pages view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Conversations"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading conversations..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	default:
		b.WriteString(v.list.View())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] open  [d] clear  [r] reload  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, height-6)
}

// Pages returns the listed conversation keys.
func (v *View) Pages() []string {
	return v.list.Pages()
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}
