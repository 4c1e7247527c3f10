// Package browser drives headless Chrome through go-rod. It provides the
// computed-style SnapshotSource and the ChartSurface charts are drawn in.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// DefaultNavigateTimeout bounds one page navigation.
const DefaultNavigateTimeout = 30 * time.Second

// ErrClosed is returned once the manager has been shut down.
var ErrClosed = errors.New("browser: manager is closed")

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string

	// Bin overrides the Chrome binary. Empty lets the launcher find or
	// download one.
	Bin string

	// NavigateTimeout bounds one navigation. Default: 30s.
	NavigateTimeout time.Duration
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = DefaultNavigateTimeout
	}
}

// Manager owns one Chrome process. Chrome is launched on first use and
// shared by every page the manager opens.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a manager. Nothing is launched until a page is needed.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Browser returns the shared browser, launching it if needed.
func (m *Manager) Browser() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.browser != nil {
		return m.browser, nil
	}

	b, err := m.launch()
	if err != nil {
		return nil, err
	}
	m.browser = b
	return b, nil
}

// NewPage opens a blank stealth page.
func (m *Manager) NewPage() (*rod.Page, error) {
	b, err := m.Browser()
	if err != nil {
		return nil, err
	}
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	return page, nil
}

// Open opens a stealth page and navigates it to pageURL.
func (m *Manager) Open(ctx context.Context, pageURL string) (*rod.Page, error) {
	page, err := m.NewPage()
	if err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		logger.Warn("browser: wait load %s: %v", pageURL, err)
	}
	return page, nil
}

// Close shuts Chrome down. Further calls fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return err
}

func (m *Manager) launch() (*rod.Browser, error) {
	wsURL := m.cfg.RemoteURL

	if wsURL == "" {
		l := launcher.New().Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		if m.cfg.Bin != "" {
			l = l.Bin(m.cfg.Bin)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		logger.Debug("browser: launched local chrome at %s", wsURL)
	} else {
		logger.Debug("browser: connecting to %s", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		logger.Warn("browser: ignore cert errors: %v", err)
	}
	return b, nil
}
