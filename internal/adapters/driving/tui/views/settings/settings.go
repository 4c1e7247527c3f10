// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/messages"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui/styles"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
)

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionVendor
	SectionAPIKey
	SectionModel
	SectionSnapshot
	SectionStorage
	SectionRedisURL
)

const (
	keyUp    = "up"
	keyDown  = "down"
	keyEnter = "enter"
)

// overviewItems are the editable rows of the overview, in display order.
var overviewItems = []Section{SectionVendor, SectionAPIKey, SectionModel, SectionSnapshot, SectionStorage}

var errNoSettingsService = errors.New("settings service not available")

// View is the settings configuration view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error

	section  Section
	selected int

	// field edits free-text values: API key, model and Redis URL.
	field textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.CharLimit = 512

	return &View{
		styles:          s,
		settingsService: settingsService,
		section:         SectionOverview,
		field:           field,
	}
}

// Init initialises the view and loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: errNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}
		return v, nil

	case messages.SettingsSaved:
		v.err = msg.Err
		if msg.Err != nil {
			return v, nil
		}
		v.back()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.back()
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		return v.handleOverviewKeys(msg)
	case SectionVendor:
		vendors := domain.AllVendors()
		if i, ok := v.choose(msg, len(vendors)); ok {
			return v, v.save(func(svc driving.SettingsService) error {
				return svc.SetVendor(vendors[i], "")
			})
		}
	case SectionSnapshot:
		modes := snapshotModes()
		if i, ok := v.choose(msg, len(modes)); ok {
			return v, v.save(func(svc driving.SettingsService) error {
				return svc.SetSnapshotMode(modes[i])
			})
		}
	case SectionStorage:
		backends := storageBackends()
		if i, ok := v.choose(msg, len(backends)); ok {
			if backends[i] == domain.StorageRedis {
				v.edit(SectionRedisURL, v.settings.Storage.RedisURL, false)
				return v, v.field.Focus()
			}
			return v, v.save(func(svc driving.SettingsService) error {
				return svc.SetStorageBackend(backends[i], "")
			})
		}
	case SectionAPIKey, SectionModel, SectionRedisURL:
		return v.handleFieldKeys(msg)
	}
	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	i, ok := v.choose(msg, len(overviewItems))
	if !ok || v.settings == nil {
		return v, nil
	}

	switch overviewItems[i] {
	case SectionVendor:
		v.section = SectionVendor
		v.selected = indexOf(domain.AllVendors(), v.settings.LLM.Vendor)
	case SectionAPIKey:
		v.edit(SectionAPIKey, "", true)
		return v, v.field.Focus()
	case SectionModel:
		v.edit(SectionModel, v.settings.LLM.Model, false)
		return v, v.field.Focus()
	case SectionSnapshot:
		v.section = SectionSnapshot
		v.selected = indexOf(snapshotModes(), v.settings.Extract.Source)
	case SectionStorage:
		v.section = SectionStorage
		v.selected = indexOf(storageBackends(), v.settings.Storage.Backend)
	}
	return v, nil
}

func (v *View) handleFieldKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() != keyEnter {
		var cmd tea.Cmd
		v.field, cmd = v.field.Update(msg)
		return v, cmd
	}

	value := strings.TrimSpace(v.field.Value())
	switch v.section {
	case SectionAPIKey:
		return v, v.save(func(svc driving.SettingsService) error { return svc.SetAPIKey(value) })
	case SectionModel:
		return v, v.save(func(svc driving.SettingsService) error { return svc.SetModel(value) })
	case SectionRedisURL:
		return v, v.save(func(svc driving.SettingsService) error {
			return svc.SetStorageBackend(domain.StorageRedis, value)
		})
	}
	return v, nil
}

// choose moves the selection within n rows and reports whether enter was pressed.
func (v *View) choose(msg tea.KeyMsg, n int) (int, bool) {
	switch msg.String() {
	case keyUp, "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < n-1 {
			v.selected++
		}
	case keyEnter:
		if v.selected >= 0 && v.selected < n {
			return v.selected, true
		}
	}
	return 0, false
}

func (v *View) edit(section Section, value string, secret bool) {
	v.section = section
	v.field.SetValue(value)
	v.field.CursorEnd()
	if secret {
		v.field.EchoMode = textinput.EchoPassword
		v.field.Placeholder = "Enter API key"
	} else {
		v.field.EchoMode = textinput.EchoNormal
		v.field.Placeholder = ""
	}
}

func (v *View) back() {
	v.section = SectionOverview
	v.selected = 0
	v.field.SetValue("")
	v.field.Blur()
}

func (v *View) save(apply func(driving.SettingsService) error) tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: errNoSettingsService}
		}
		return messages.SettingsSaved{Err: apply(svc)}
	}
}

func snapshotModes() []domain.SnapshotMode {
	return []domain.SnapshotMode{domain.SnapshotHTTP, domain.SnapshotBrowser}
}

func storageBackends() []domain.StorageBackend {
	return []domain.StorageBackend{domain.StorageSQLite, domain.StorageMemory, domain.StorageRedis}
}

func indexOf[T comparable](items []T, want T) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionVendor:
		vendors := domain.AllVendors()
		rows := make([]string, len(vendors))
		for i, vendor := range vendors {
			rows[i] = vendor.Description()
		}
		b.WriteString(v.renderChoice("Select LLM Vendor", rows, indexOf(vendors, v.settings.LLM.Vendor)))
	case SectionSnapshot:
		b.WriteString(v.renderChoice("Select Page Capture",
			[]string{"HTTP fetch (inline styles only)", "Headless browser (computed styles)"},
			indexOf(snapshotModes(), v.settings.Extract.Source)))
	case SectionStorage:
		b.WriteString(v.renderChoice("Select Conversation Storage",
			[]string{"SQLite (~/.pagechat)", "In-memory (lost on exit)", "Redis"},
			indexOf(storageBackends(), v.settings.Storage.Backend)))
	case SectionAPIKey:
		b.WriteString(v.renderField("API Key"))
	case SectionModel:
		b.WriteString(v.renderField("Model"))
	case SectionRedisURL:
		b.WriteString(v.renderField("Redis URL"))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder

	llm := v.settings.LLM
	apiKey := v.styles.Warning.Render("(not set)")
	if llm.APIKey != "" {
		apiKey = MaskAPIKey(llm.APIKey)
	}
	storage := string(v.settings.Storage.Backend)
	if v.settings.Storage.Backend == domain.StorageRedis && v.settings.Storage.RedisURL != "" {
		storage += " (" + v.settings.Storage.RedisURL + ")"
	}

	values := map[Section]string{
		SectionVendor:   fmt.Sprintf("%s  %s", llm.Vendor.Description(), llm.APIEndpoint),
		SectionAPIKey:   apiKey,
		SectionModel:    llm.Model,
		SectionSnapshot: string(v.settings.Extract.Source),
		SectionStorage:  storage,
	}
	labels := map[Section]string{
		SectionVendor:   "Vendor",
		SectionAPIKey:   "API Key",
		SectionModel:    "Model",
		SectionSnapshot: "Page Capture",
		SectionStorage:  "Storage",
	}

	for i, section := range overviewItems {
		line := fmt.Sprintf("%s: %s", labels[section], values[section])
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render("Warning: " + err.Error()))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderChoice(title string, rows []string, current int) string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(title))
	b.WriteString("\n\n")

	for i, row := range rows {
		if i == current {
			row += v.styles.Success.Render(" (current)")
		}
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + row))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderField(label string) string {
	return v.styles.Subtitle.Render(label) + "\n\n" + v.field.View() + "\n"
}

func (v *View) renderHelp() string {
	switch v.section {
	case SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	case SectionAPIKey, SectionModel, SectionRedisURL:
		return v.styles.Help.Render("[enter] save  [esc] cancel")
	default:
		return v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] back")
	}
}

// MaskAPIKey hides all but the ends of a key.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.back()
	v.err = nil
}
