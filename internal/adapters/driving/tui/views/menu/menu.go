// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/messages"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/styles"
)

// Item represents a single menu option.
type Item struct {
	Label string
	View  messages.ViewType
	Quit  bool
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int

	// page is the address the chat view is attached to.
	page string

	// notice is shown under the title, e.g. a configuration warning.
	notice string

	width  int
	height int
	ready  bool
}

// NewView creates a new menu view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		items: []Item{
			{Label: "Chat", View: messages.ViewChat},
			{Label: "Pages", View: messages.ViewPages},
			{Label: "Settings", View: messages.ViewSettings},
			{Label: "Help", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case "enter":
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}
		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("pagechat"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Ask questions about web pages"))
	b.WriteString("\n")

	if v.page != "" {
		b.WriteString(v.styles.Normal.Render("Page: " + v.page))
		b.WriteString("\n")
	}
	if v.notice != "" {
		b.WriteString(v.styles.Warning.Render(v.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, item := range v.items {
		if i == v.selected {
			b.WriteString("> " + v.styles.Subtitle.Render(item.Label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(item.Label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// SetPage shows the page the chat is attached to.
func (v *View) SetPage(pageURL string) {
	v.page = pageURL
}

// SetNotice shows a one-line notice under the title.
func (v *View) SetNotice(notice string) {
	v.notice = notice
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
