// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/styles"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// PageList displays pages with stored conversations in a navigable list.
type PageList struct {
	keys     []string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPageList creates a new page list component.
func NewPageList(s *styles.Styles) *PageList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &PageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (p *PageList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (p *PageList) Update(msg tea.Msg) (*PageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			p.MoveUp()
		case "down", "j":
			p.MoveDown()
		}
	}
	return p, nil
}

// View renders the list.
func (p *PageList) View() string {
	if len(p.keys) == 0 {
		return p.styles.Muted.Render("No conversations yet")
	}

	lines := make([]string, 0, len(p.keys)+2)
	lines = append(lines, p.styles.Subtitle.Render(fmt.Sprintf("Pages (%d)", len(p.keys))), "")

	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if p.selected >= visible {
		start = p.selected - visible + 1
	}
	end := start + visible
	if end > len(p.keys) {
		end = len(p.keys)
	}

	for i := start; i < end; i++ {
		lines = append(lines, p.renderPage(i))
	}
	return strings.Join(lines, "\n")
}

func (p *PageList) renderPage(index int) string {
	label := Label(p.keys[index])
	maxLen := p.width - 4
	if maxLen < 10 {
		maxLen = 10
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}

	if index == p.selected {
		return p.styles.Selected.Render("> " + label)
	}
	return p.styles.Normal.Render("  " + label)
}

// Label returns the display form of a conversation key.
func Label(key string) string {
	if u, ok := domain.PageURL(key); ok {
		return u
	}
	return key
}

// SetPages replaces the listed keys, keeping the selection in range.
func (p *PageList) SetPages(keys []string) {
	p.keys = keys
	if p.selected >= len(keys) {
		p.selected = len(keys) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

// Pages returns the listed keys.
func (p *PageList) Pages() []string {
	return p.keys
}

// Selected returns the index of the highlighted page.
func (p *PageList) Selected() int {
	return p.selected
}

// SelectedKey returns the highlighted key, or "" if the list is empty.
func (p *PageList) SelectedKey() string {
	if len(p.keys) == 0 {
		return ""
	}
	return p.keys[p.selected]
}

// MoveUp moves selection up.
func (p *PageList) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down.
func (p *PageList) MoveDown() {
	if p.selected < len(p.keys)-1 {
		p.selected++
	}
}

// SetDimensions sets the component dimensions.
func (p *PageList) SetDimensions(width, height int) {
	p.width = width
	p.height = height
}

// Count returns the number of pages.
func (p *PageList) Count() int {
	return len(p.keys)
}
