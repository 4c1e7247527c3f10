package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/keymap"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/messages"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/styles"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/views/chat"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/views/menu"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/views/pages"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles

	menuView     *menu.View
	chatView     *chat.View
	pagesView    *pages.View
	settingsView *settings.View

	// initialPage is opened in the chat view on start.
	initialPage string

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	app := &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menu.NewView(s),
		chatView:     chat.NewView(s, km, ports.Chat),
		pagesView:    pages.NewView(s, ports.Chat),
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewMenu,
	}
	app.checkSettings()
	return app, nil
}

// checkSettings shows a menu notice when the LLM is not usable yet.
func (a *App) checkSettings() {
	if a.ports.Settings == nil {
		return
	}
	if err := a.ports.Settings.Validate(); err != nil {
		a.menuView.SetNotice("LLM not configured: " + err.Error())
		return
	}
	a.menuView.SetNotice("")
}

// WithContext sets the context for the app and its service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.pagesView.WithContext(ctx)
	return a
}

// OpenPage makes the app start in the chat view for pageURL.
func (a *App) OpenPage(pageURL string) *App {
	a.initialPage = pageURL
	a.currentView = messages.ViewChat
	a.menuView.SetPage(pageURL)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("pagechat"),
	}
	if a.initialPage != "" {
		cmds = append(cmds, a.chatView.SetPage(a.initialPage))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChat:
			return a, a.chatView.Focus()
		case messages.ViewPages:
			return a, a.pagesView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu:
			a.checkSettings()
		case messages.ViewHelp:
		}
		return a, nil

	case messages.PageSelected:
		a.currentView = messages.ViewChat
		a.menuView.SetPage(msg.PageURL)
		return a, a.chatView.SetPage(msg.PageURL)

	case messages.TurnCompleted, messages.ChartFinished,
		messages.HistoryLoaded, messages.SuggestionsLoaded:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.HistoryCleared:
		// Both the chat and pages views may show the cleared conversation.
		var pagesCmd tea.Cmd
		a.chatView, cmd = a.chatView.Update(msg)
		if a.currentView == messages.ViewPages {
			a.pagesView, pagesCmd = a.pagesView.Update(msg)
		}
		return a, tea.Batch(cmd, pagesCmd)

	case messages.PagesLoaded:
		a.pagesView, cmd = a.pagesView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewChat {
			a.chatView, cmd = a.chatView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewPages:
		a.pagesView, cmd = a.pagesView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewPages:
		return a.pagesView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Chat:
  (type)      Page address, then your question
  enter       Open page / ask
  tab         Insert next suggested question
  ↑/↓         Scroll conversation
  ctrl+l      Clear this page's history

Conversations:
  j/k, ↑/↓    Navigate pages
  enter       Open conversation
  d           Clear conversation
  r           Reload

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Page returns the page open in the chat view.
func (a *App) Page() string {
	return a.chatView.Page()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.pagesView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
